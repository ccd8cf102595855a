// Package profile keeps the locally edited user profile. Nothing is
// persisted; the profile lives as long as the process.
package profile

import (
	"net/mail"
	"strings"
	"sync"

	"github.com/go-faster/errors"
)

// Validation errors returned by Editor.Save.
var (
	ErrNoDraft      = errors.New("profile is not being edited")
	ErrEmptyName    = errors.New("name is required")
	ErrInvalidEmail = errors.New("email is invalid")
)

// Profile is the user's displayed identity. Photo is an opaque image URI
// produced by the platform's camera or gallery picker.
type Profile struct {
	Name  string
	Email string
	Photo string
}

// Editor owns the current profile and an optional draft opened by Begin.
type Editor struct {
	mu      sync.Mutex
	current Profile
	draft   *Profile
}

// NewEditor returns an Editor showing initial.
func NewEditor(initial Profile) *Editor {
	return &Editor{current: initial}
}

// Current returns the saved profile.
func (e *Editor) Current() Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Draft returns the profile being edited, if any.
func (e *Editor) Draft() (Profile, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.draft == nil {
		return Profile{}, false
	}
	return *e.draft, true
}

// Begin opens a draft initialised from the saved profile. Calling it while a
// draft is open keeps the existing draft.
func (e *Editor) Begin() Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.draft == nil {
		d := e.current
		e.draft = &d
	}
	return *e.draft
}

// SetName edits the draft name.
func (e *Editor) SetName(name string) error {
	return e.edit(func(p *Profile) { p.Name = name })
}

// SetEmail edits the draft email.
func (e *Editor) SetEmail(email string) error {
	return e.edit(func(p *Profile) { p.Email = email })
}

// SetPhoto replaces the draft photo URI.
func (e *Editor) SetPhoto(uri string) error {
	return e.edit(func(p *Profile) { p.Photo = uri })
}

func (e *Editor) edit(fn func(p *Profile)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.draft == nil {
		return ErrNoDraft
	}
	fn(e.draft)
	return nil
}

// Save validates the draft and makes it the current profile. On validation
// failure the draft stays open.
func (e *Editor) Save() (Profile, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.draft == nil {
		return e.current, ErrNoDraft
	}

	d := *e.draft
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.TrimSpace(d.Email)
	if err := Validate(d); err != nil {
		return e.current, err
	}

	e.current = d
	e.draft = nil
	return d, nil
}

// Cancel drops the draft without touching the saved profile.
func (e *Editor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft = nil
}

// Validate checks the required profile fields.
func Validate(p Profile) error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	addr, err := mail.ParseAddress(p.Email)
	if err != nil || addr.Address != strings.TrimSpace(p.Email) {
		return errors.Wrapf(ErrInvalidEmail, "%q", p.Email)
	}
	return nil
}
