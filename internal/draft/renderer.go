package draft

import (
	"fmt"
	"strings"
	"sync"

	"github.com/osteele/liquid"

	"github.com/iit2022231-sys/My-Email-Tracker/internal/contacts"
)

// Renderer fills Liquid placeholders in drafts with per-recipient values.
// Rendering is lax: a draft whose template fails to compile or render is
// returned unchanged, so plain drafts always pass through verbatim.
type Renderer struct {
	engine *liquid.Engine
	cache  sync.Map // source -> *liquid.Template
}

// NewRenderer creates a renderer with the default filter for fallback values,
// e.g. {{ name | default: "there" }}.
func NewRenderer() *Renderer {
	engine := liquid.NewEngine()

	engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		s := fmt.Sprintf("%v", value)
		if s == "" || s == "<nil>" {
			return defaultVal
		}
		return value
	})

	return &Renderer{engine: engine}
}

// Personalize renders the draft's subject and body for one recipient, binding
// name, company and email.
func (r *Renderer) Personalize(d Draft, c contacts.Contact) Draft {
	bindings := map[string]interface{}{
		"name":    c.Name,
		"company": c.Company,
		"email":   c.Email,
	}
	return Draft{
		Subject: r.render(d.Subject, bindings),
		Body:    r.render(d.Body, bindings),
	}
}

func (r *Renderer) render(source string, bindings map[string]interface{}) string {
	if !strings.Contains(source, "{{") && !strings.Contains(source, "{%") {
		return source
	}

	var tmpl *liquid.Template
	if cached, ok := r.cache.Load(source); ok {
		tmpl = cached.(*liquid.Template)
	} else {
		parsed, err := r.engine.ParseString(source)
		if err != nil {
			return source
		}
		r.cache.Store(source, parsed)
		tmpl = parsed
	}

	out, err := tmpl.RenderString(bindings)
	if err != nil {
		return source
	}
	return out
}
