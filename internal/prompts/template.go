package prompts

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"text/template"

	pkgerrors "github.com/yungbote/relocation-intake/internal/pkg/errors"
)

// Template is one named, versioned prompt. System and User are text/template sources
// rendered against Input.
type Template struct {
	Name    PromptName `yaml:"name" json:"name"`
	Version int        `yaml:"version" json:"version"`
	System  string     `yaml:"system" json:"system"`
	User    string     `yaml:"user" json:"user"`
}

// Prompt is a rendered Template, ready for the model.
type Prompt struct {
	Name        string
	Version     int
	System      string
	User        string
	Fingerprint string
}

// Validate checks the template has a name, a positive version and parseable bodies.
func (t Template) Validate() error {
	if strings.TrimSpace(string(t.Name)) == "" {
		return fmt.Errorf("%w: missing prompt name", pkgerrors.ErrInvalidArgument)
	}
	if t.Version <= 0 {
		return fmt.Errorf("%w: invalid version for %s", pkgerrors.ErrInvalidArgument, t.Name)
	}
	if strings.TrimSpace(t.System) == "" || strings.TrimSpace(t.User) == "" {
		return fmt.Errorf("%w: %s needs system and user text", pkgerrors.ErrInvalidArgument, t.Name)
	}
	if _, err := parse("system", t.System); err != nil {
		return fmt.Errorf("%w: %s system template parse: %v", pkgerrors.ErrInvalidArgument, t.Name, err)
	}
	if _, err := parse("user", t.User); err != nil {
		return fmt.Errorf("%w: %s user template parse: %v", pkgerrors.ErrInvalidArgument, t.Name, err)
	}
	return nil
}

func parse(name, src string) (*template.Template, error) {
	return template.New(name).Option("missingkey=zero").Parse(src)
}

// Render executes both bodies against in.
func Render(t Template, in Input) (Prompt, error) {
	sysT, err := parse("system", t.System)
	if err != nil {
		return Prompt{}, fmt.Errorf("%s system template parse: %w", t.Name, err)
	}
	userT, err := parse("user", t.User)
	if err != nil {
		return Prompt{}, fmt.Errorf("%s user template parse: %w", t.Name, err)
	}
	var sys, user bytes.Buffer
	if err := sysT.Execute(&sys, in); err != nil {
		return Prompt{}, fmt.Errorf("%s system render: %w", t.Name, err)
	}
	if err := userT.Execute(&user, in); err != nil {
		return Prompt{}, fmt.Errorf("%s user render: %w", t.Name, err)
	}
	return Prompt{
		Name:        string(t.Name),
		Version:     t.Version,
		System:      strings.TrimSpace(sys.String()),
		User:        strings.TrimSpace(user.String()),
		Fingerprint: t.Fingerprint(),
	}, nil
}

// Fingerprint identifies the template source, independent of the input.
func (t Template) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00%s\x00%s", t.Name, t.Version, t.System, t.User)
	return hex.EncodeToString(h.Sum(nil))[:16]
}
