package odoo

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kolo/xmlrpc"
)

// Client is an Odoo XML-RPC client
type Client struct {
	URL       string
	Database  string
	Username  string
	Password  string
	CommonURL string
	ObjectURL string

	mu  sync.Mutex
	uid int
}

// NewClient creates a new Odoo client
func NewClient(url, db, username, password string) *Client {
	return &Client{
		URL:       url,
		Database:  db,
		Username:  username,
		Password:  password,
		CommonURL: fmt.Sprintf("%s/xmlrpc/2/common", url),
		ObjectURL: fmt.Sprintf("%s/xmlrpc/2/object", url),
	}
}

// Authenticate logs in and caches the user id
func (c *Client) Authenticate() (int, error) {
	client, err := xmlrpc.NewClient(c.CommonURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create XML-RPC client: %w", err)
	}
	defer client.Close()

	args := []interface{}{c.Database, c.Username, c.Password, map[string]interface{}{}}
	var uid int
	if err := client.Call("authenticate", args, &uid); err != nil {
		return 0, fmt.Errorf("authentication failed: %w", err)
	}
	if uid == 0 {
		return 0, fmt.Errorf("authentication failed: invalid credentials for %s", c.Username)
	}

	c.mu.Lock()
	c.uid = uid
	c.mu.Unlock()
	return uid, nil
}

func (c *Client) userID() (int, error) {
	c.mu.Lock()
	uid := c.uid
	c.mu.Unlock()
	if uid != 0 {
		return uid, nil
	}
	return c.Authenticate()
}

func (c *Client) execute(model, method string, positional []interface{}, kwargs map[string]interface{}, result interface{}) error {
	uid, err := c.userID()
	if err != nil {
		return err
	}

	client, err := xmlrpc.NewClient(c.ObjectURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create XML-RPC client: %w", err)
	}
	defer client.Close()

	args := []interface{}{c.Database, uid, c.Password, model, method, positional}
	if kwargs != nil {
		args = append(args, kwargs)
	}
	if err := client.Call("execute_kw", args, result); err != nil {
		return fmt.Errorf("failed to execute %s.%s: %w", model, method, err)
	}
	return nil
}

// SearchRead runs search_read on model and decodes the rows into result,
// a pointer to a slice of structs with json tags.
func (c *Client) SearchRead(model string, domain []interface{}, fields []string, limit int, result interface{}) error {
	var raw []map[string]interface{}
	kwargs := map[string]interface{}{"fields": fields}
	if limit > 0 {
		kwargs["limit"] = limit
	}
	if err := c.execute(model, "search_read", []interface{}{domain}, kwargs, &raw); err != nil {
		return err
	}

	// round-trip through JSON so OdooString and friends can absorb Odoo's false-for-empty
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to marshal raw result: %w", err)
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("failed to unmarshal into target: %w", err)
	}
	return nil
}

// Create creates a record and returns its id
func (c *Client) Create(model string, values map[string]interface{}) (int64, error) {
	var id int64
	if err := c.execute(model, "create", []interface{}{values}, nil, &id); err != nil {
		return 0, err
	}
	return id, nil
}
