// Package client implements the Client aggregate: the person menus are
// planned for.
package client

import (
	"github.com/menu-planning/go-menuplan"
	"github.com/menu-planning/go-menuplan/domain/shared"
)

// AggregateType is the aggregate type of Client.
const AggregateType = "Client"

// Profile describes the client.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// ClientDeleted is raised when a client is deleted.
type ClientDeleted struct {
	ClientID string `json:"clientId" msgpack:"clientId"`
	AuthorID string `json:"authorId" msgpack:"authorId"`
}

// EventType returns "ClientDeleted".
func (ClientDeleted) EventType() string { return "ClientDeleted" }

// AggregateID returns the client ID.
func (e ClientDeleted) AggregateID() string { return e.ClientID }

// Events returns a zero value of every event the Client aggregate raises.
func Events() []menuplan.Event {
	return []menuplan.Event{ClientDeleted{}}
}

// Client is an aggregate root.
type Client struct {
	menuplan.AggregateBase

	authorID string
	profile  Profile
	notes    string
	tags     shared.TagSet
}

// Params holds the fields of a new client.
type Params struct {
	ID       string
	AuthorID string
	Profile  Profile
	Notes    string
	Tags     shared.TagSet
}

// New creates a client at version 1.
func New(p Params) (*Client, error) {
	id := p.ID
	if id == "" {
		id = menuplan.NewID()
	}
	if p.Profile.Name == "" {
		return nil, menuplan.NewInvalidPropertyError(AggregateType, "profile", "name required")
	}
	if err := shared.CheckTagsAuthor(AggregateType, p.AuthorID, p.Tags); err != nil {
		return nil, err
	}
	return &Client{
		AggregateBase: menuplan.NewAggregateBase(id, AggregateType),
		authorID:      p.AuthorID,
		profile:       p.Profile,
		notes:         p.Notes,
		tags:          p.Tags.Clone(),
	}, nil
}

// Snapshot is a read-only copy of a live client's data.
type Snapshot struct {
	ID       string
	AuthorID string
	Profile  Profile
	Notes    string
	Tags     shared.TagSet
	Version  int64
}

// Snapshot returns the client's data, or a *menuplan.DiscardedError once
// the client was deleted.
func (c *Client) Snapshot() (Snapshot, error) {
	if err := c.CheckNotDiscarded(); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		ID:       c.AggregateID(),
		AuthorID: c.authorID,
		Profile:  c.profile,
		Notes:    c.notes,
		Tags:     c.tags.Clone(),
		Version:  c.Version(),
	}, nil
}

func (c *Client) AuthorID() string    { return c.authorID }
func (c *Client) Profile() Profile    { return c.profile }
func (c *Client) Notes() string       { return c.notes }
func (c *Client) Tags() shared.TagSet { return c.tags.Clone() }

// SetProfile replaces the profile.
func (c *Client) SetProfile(p Profile) error {
	if err := c.CheckNotDiscarded(); err != nil {
		return err
	}
	if p.Name == "" {
		return menuplan.NewInvalidPropertyError(AggregateType, "profile", "name required")
	}
	c.profile = p
	c.IncrementVersion()
	return nil
}

// SetNotes sets the notes.
func (c *Client) SetNotes(notes string) error {
	if err := c.CheckNotDiscarded(); err != nil {
		return err
	}
	c.notes = notes
	c.IncrementVersion()
	return nil
}

// SetTags replaces the tag set. Tags of another author are rejected.
func (c *Client) SetTags(tags shared.TagSet) error {
	if err := c.CheckNotDiscarded(); err != nil {
		return err
	}
	if err := shared.CheckTagsAuthor(AggregateType, c.authorID, tags); err != nil {
		return err
	}
	c.tags = tags.Clone()
	c.IncrementVersion()
	return nil
}

// UpdateProperties applies several changes in sorted key order. Keys:
// profile (Profile), notes (string), tags (shared.TagSet or []shared.Tag).
func (c *Client) UpdateProperties(updates map[string]interface{}) error {
	if err := c.CheckNotDiscarded(); err != nil {
		return err
	}
	return shared.ApplyProperties(AggregateType, updates, map[string]shared.Setter{
		"profile": func(v interface{}) error {
			p, ok := v.(Profile)
			if !ok {
				return menuplan.NewInvalidPropertyError(AggregateType, "profile", "expected Profile")
			}
			return c.SetProfile(p)
		},
		"notes": func(v interface{}) error {
			s, err := shared.AsString(AggregateType, "notes", v)
			if err != nil {
				return err
			}
			return c.SetNotes(s)
		},
		"tags": func(v interface{}) error {
			tags, err := shared.AsTagSet(AggregateType, "tags", v)
			if err != nil {
				return err
			}
			return c.SetTags(tags)
		},
	})
}

// Delete discards the client and raises ClientDeleted.
func (c *Client) Delete() error {
	if err := c.CheckNotDiscarded(); err != nil {
		return err
	}
	c.Raise(ClientDeleted{ClientID: c.AggregateID(), AuthorID: c.authorID})
	c.Discard()
	c.IncrementVersion()
	return nil
}

// Clone returns a deep copy with an empty event queue.
func (c *Client) Clone() *Client {
	return &Client{
		AggregateBase: c.CloneBase(),
		authorID:      c.authorID,
		profile:       c.profile,
		notes:         c.notes,
		tags:          c.tags.Clone(),
	}
}
