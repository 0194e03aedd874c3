package core

import (
	"bytes"
	"encoding/base64"
	"fmt"
	htmltmpl "html/template"
	"io"
	"io/fs"
	"net/http"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

// Email template extensions. A message renders every extension it has a template for.
const (
	textExt = ".txt"
	htmlExt = ".gohtml"
)

var (
	templates   = make(tmplCache)
	templatesMu sync.RWMutex
	frontendURL string
	appName     string
)

type (
	// executor is satisfied by both text and html templates.
	executor interface {
		ExecuteTemplate(w io.Writer, name string, data interface{}) error
	}

	tmplCacheEntry map[string]executor        // {ext: template}
	tmplCache      map[string]tmplCacheEntry // {name: {tmplCacheEntry}}

	Attachment struct {
		Content     *bytes.Buffer
		ContentType string
		Filename    string
	}

	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		Subject     string
		BodyStr     string // simple text/plain, non-templated content
		Attachments []Attachment

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		AppName         string
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func (m *EmailMessage) getContextData() ContextData {
	return ContextData{
		AppName:         appName,
		FrontendBaseURL: frontendURL,
		Data:            m.TemplateData,
	}
}

func (m *EmailMessage) getTemplate(ext string) (executor, bool) {
	templatesMu.RLock()
	defer templatesMu.RUnlock()
	tmpl, ok := templates[m.TemplateName][ext]
	return tmpl, ok
}

func (m *EmailMessage) render(ext string) (string, error) {
	tmpl, ok := m.getTemplate(ext)
	if !ok {
		return "", nil
	}
	var buff bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buff, "base", m.getContextData()); err != nil {
		return "", errors.Wrapf(err, "rendering %s%s", m.TemplateName, ext)
	}
	return buff.String(), nil
}

// Render fills TextContent and HTMLContent. BodyStr wins over a text template.
func (m *EmailMessage) Render() (err error) {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	if m.TemplateName == "" {
		return nil
	}
	if m.TextContent == "" {
		if m.TextContent, err = m.render(textExt); err != nil {
			return err
		}
	}
	m.HTMLContent, err = m.render(htmlExt)
	return err
}

func (m *EmailMessage) Attach(r io.Reader, filename string, ct ...string) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	at := Attachment{Filename: filename, Content: new(bytes.Buffer)}
	encoder := base64.NewEncoder(base64.StdEncoding, at.Content)
	if _, err := encoder.Write(content); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}

	if len(ct) > 0 {
		at.ContentType = ct[0]
	} else {
		at.ContentType = http.DetectContentType(content)
	}
	m.Attachments = append(m.Attachments, at)
	return nil
}

func (m *EmailMessage) HasRecipients() bool  { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool     { return (m.TextContent != "") || (m.HTMLContent != "") }
func (m *EmailMessage) HasAttachments() bool { return len(m.Attachments) > 0 }

// ParseEmailTemplates loads `<dir>/*.txt|*.gohtml` from fsys. Files starting with "_" are layouts:
// each template is parsed along with `_base` of the same extension and rendered through "base".
func ParseEmailTemplates(conf *Config, fsys fs.FS, dir string, logger Logger) {
	templatesMu.Lock()
	defer templatesMu.Unlock()

	frontendURL = conf.FrontendBaseURL
	appName = conf.AppName
	templates = make(tmplCache)
	strict := conf.Debug || conf.TestMode

	fps, err := fs.Glob(fsys, path.Join(dir, "*"))
	if err != nil {
		logger.Error(fmt.Sprintf("core.ParseEmailTemplates: %v", err), err)
		return
	}

	for _, fp := range fps {
		fname := path.Base(fp)
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, "_") || !(ext == textExt || ext == htmlExt) {
			continue
		}
		tmpl, err := parseTemplate(fsys, ext, strict, path.Join(dir, "_base"+ext), fp)
		if err != nil {
			logger.Error(fmt.Sprintf("core.ParseEmailTemplates(%s): %v", fp, err), err)
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		if templates[name] == nil {
			templates[name] = make(tmplCacheEntry)
		}
		templates[name][ext] = tmpl
	}
}

func parseTemplate(fsys fs.FS, ext string, strict bool, patterns ...string) (executor, error) {
	if ext == textExt {
		tmpl, err := texttmpl.ParseFS(fsys, patterns...)
		if err == nil && strict {
			tmpl = tmpl.Option("missingkey=error")
		}
		return tmpl, err
	}
	tmpl, err := htmltmpl.ParseFS(fsys, patterns...)
	if err == nil && strict {
		tmpl = tmpl.Option("missingkey=error")
	}
	return tmpl, err
}
