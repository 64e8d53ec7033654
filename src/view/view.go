// Package view projects controller state into what the page shows.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/stake-plus/middlefinger/src/feed"
)

const (
	Header       = "🖕🏻🎁 Welcome to the Middle Finger Giver!"
	Bio          = "This is a place where you can give middle fingers at me if you had a bad day. Come on, feel better by giving me the middle finger, you can even get ETH by doin' it!"
	InputLabel   = "Enter your middle finger message:"
	SubmitLabel  = "Give me the middle finger!"
	ConnectLabel = "Connect Wallet"
)

// TimeLayout matches the browser's Date.toString rendering.
const TimeLayout = "Mon Jan 02 2006 15:04:05 GMT-0700 (MST)"

//go:embed templates/*.html
var templates embed.FS

// Entry is one feed row as shown on the page. Message is the recorded text, unaltered.
type Entry struct {
	Address string `json:"address"`
	Time    string `json:"time"`
	Message string `json:"message"`
}

// Page is everything the page renders, derived from one controller state.
type Page struct {
	Header         string  `json:"header"`
	Bio            string  `json:"bio"`
	Account        string  `json:"account,omitempty"`
	Notice         string  `json:"notice,omitempty"`
	Draft          string  `json:"draft"`
	ShowConnect    bool    `json:"showConnect"`
	Cooling        bool    `json:"cooling"`
	CooldownNotice string  `json:"cooldownNotice,omitempty"`
	SubmitDisabled bool    `json:"submitDisabled"`
	Entries        []Entry `json:"entries"`
}

// Renderer turns controller state into pages. The template escapes every field on output.
type Renderer struct {
	loc  *time.Location
	tmpl *template.Template
}

// New builds a renderer showing times in loc (local time when nil).
func New(loc *time.Location) (*Renderer, error) {
	if loc == nil {
		loc = time.Local
	}
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"inputLabel":   func() string { return InputLabel },
		"submitLabel":  func() string { return SubmitLabel },
		"connectLabel": func() string { return ConnectLabel },
	}).ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{loc: loc, tmpl: tmpl}, nil
}

// Project maps s to a Page. It has no side effects.
func (r *Renderer) Project(s feed.State) Page {
	p := Page{
		Header:         Header,
		Bio:            Bio,
		Notice:         s.Notice,
		Draft:          s.Draft,
		ShowConnect:    s.Account == nil,
		Cooling:        s.Cooling(),
		SubmitDisabled: s.SubmitDisabled(),
		Entries:        make([]Entry, 0, len(s.Feed)),
	}
	if s.Account != nil {
		p.Account = s.Account.Hex()
	}
	if p.Cooling {
		p.CooldownNotice = CooldownNotice(*s.Cooldown)
	}
	for _, sub := range s.Feed {
		p.Entries = append(p.Entries, Entry{
			Address: sub.Address.Hex(),
			Time:    sub.Timestamp.In(r.loc).Format(TimeLayout),
			Message: sub.Message,
		})
	}
	return p
}

// CooldownNotice is the text shown instead of the submit button while cooling down.
func CooldownNotice(minutes int) string {
	return fmt.Sprintf("You have to wait %d minute(s) to give me the middle finger again!", minutes)
}

// Render writes the full HTML page for p.
func (r *Renderer) Render(w io.Writer, p Page) error {
	return r.tmpl.ExecuteTemplate(w, "index.html", p)
}
