package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/devicelab-dev/joplin-runner/pkg/logger"
)

// Notebook is a folder. Top-level notebooks have an empty ParentID.
type Notebook struct {
	ID       string `json:"id,omitempty"`
	ParentID string `json:"parent_id"`
	Title    string `json:"title"`
}

// Note is a note or to-do.
type Note struct {
	ID       string `json:"id,omitempty"`
	ParentID string `json:"parent_id,omitempty"`
	Title    string `json:"title"`
	Body     string `json:"body,omitempty"`
	IsTodo   Flag   `json:"is_todo,omitempty"`

	// TodoCompleted is the completion time in Unix milliseconds, 0 while open.
	TodoCompleted int64 `json:"todo_completed,omitempty"`
}

// CompletedAt returns when the to-do was completed, or the zero time.
func (n Note) CompletedAt() time.Time {
	if n.TodoCompleted == 0 {
		return time.Time{}
	}
	return time.UnixMilli(n.TodoCompleted)
}

// Tag is a label attached to notes.
type Tag struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
}

// Flag is a boolean the API encodes as 0 or 1.
type Flag bool

// MarshalJSON implements json.Marshaler.
func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		var b bool
		if err2 := json.Unmarshal(data, &b); err2 != nil {
			return fmt.Errorf("invalid flag %s", data)
		}
		*f = Flag(b)
		return nil
	}
	*f = n != 0
	return nil
}

const noteFields = "id,parent_id,title,body,is_todo,todo_completed"

// Notebooks lists every notebook, nested ones included.
func (c *Client) Notebooks() ([]Notebook, error) {
	return list[Notebook](c, "/folders", "")
}

// Notes lists every note and to-do.
func (c *Client) Notes() ([]Note, error) {
	return list[Note](c, "/notes", noteFields)
}

// Note fetches a single note.
func (c *Client) Note(id string) (Note, error) {
	var n Note
	q := url.Values{}
	q.Set("fields", noteFields)
	data, err := c.do(http.MethodGet, "/notes/"+id, q, nil)
	if err != nil {
		return n, err
	}
	if err := json.Unmarshal(data, &n); err != nil {
		return n, fmt.Errorf("parse note %s: %w", id, err)
	}
	return n, nil
}

// NotebookNotes lists the notes directly inside a notebook.
func (c *Client) NotebookNotes(notebookID string) ([]Note, error) {
	return list[Note](c, "/folders/"+notebookID+"/notes", noteFields)
}

// Tags lists every tag.
func (c *Client) Tags() ([]Tag, error) {
	return list[Tag](c, "/tags", "")
}

// AddNotebook creates a notebook. A set ID must be 32 hex characters.
func (c *Client) AddNotebook(nb Notebook) (Notebook, error) {
	logger.Debug("API: add notebook %q", nb.Title)
	return create[Notebook](c, "/folders", nb)
}

// AddNote creates a note. Without ParentID it lands in the selected notebook.
func (c *Client) AddNote(n Note) (Note, error) {
	logger.Debug("API: add note %q", n.Title)
	return create[Note](c, "/notes", n)
}

// AddTag creates a tag.
func (c *Client) AddTag(t Tag) (Tag, error) {
	logger.Debug("API: add tag %q", t.Title)
	return create[Tag](c, "/tags", t)
}

// TagNote attaches a tag to a note.
func (c *Client) TagNote(tagID, noteID string) error {
	_, err := c.do(http.MethodPost, "/tags/"+tagID+"/notes", nil, map[string]string{"id": noteID})
	return err
}

// DeleteNotebook deletes a notebook together with its content.
func (c *Client) DeleteNotebook(id string) error {
	_, err := c.do(http.MethodDelete, "/folders/"+id, nil, nil)
	return err
}

// DeleteNote deletes a note.
func (c *Client) DeleteNote(id string) error {
	_, err := c.do(http.MethodDelete, "/notes/"+id, nil, nil)
	return err
}

// DeleteTag deletes a tag.
func (c *Client) DeleteTag(id string) error {
	_, err := c.do(http.MethodDelete, "/tags/"+id, nil, nil)
	return err
}

// DeleteAllNotebooks removes every top-level notebook, and with them all
// nested notebooks and notes.
func (c *Client) DeleteAllNotebooks() error {
	notebooks, err := c.Notebooks()
	if err != nil {
		return err
	}
	for _, nb := range notebooks {
		if nb.ParentID != "" {
			continue
		}
		if err := c.DeleteNotebook(nb.ID); err != nil {
			return fmt.Errorf("delete notebook %s: %w", nb.ID, err)
		}
	}
	return nil
}

// DeleteAllTags removes every tag.
func (c *Client) DeleteAllTags() error {
	tags, err := c.Tags()
	if err != nil {
		return err
	}
	for _, t := range tags {
		if err := c.DeleteTag(t.ID); err != nil {
			return fmt.Errorf("delete tag %s: %w", t.ID, err)
		}
	}
	return nil
}
