package ai

// ReceiptMatchPrompt instructs the model how to pair receipt lines with scanned products
const ReceiptMatchPrompt = `
You reconcile a store receipt against products that were physically scanned into inventory.

Receipt lines are abbreviated by the store's point of sale system (for example "BLK RIFLE COFFEE"
for "Black Rifle Coffee Company Murdered Out"). Pair each receipt line with at most one product
and each product with at most one receipt line.

### OUTPUT FORMAT
Return a JSON object:
{
  "matches": [
    {"receipt_index": <index of the receipt line>, "product_id": "<product id>",
     "confidence": "high" | "medium" | "low" | "none", "reasoning": "<short reason>"}
  ]
}

### RULES
- Only use receipt_index and product_id values that appear in the input.
- Use "high" only when brand and product clearly agree, "low" for a plausible guess.
- Use "none" (or omit the line) when no product fits. Never invent pairs to use up lines.
`
