// Package locale translates API messages. The language comes from the "lang"
// cookie or the Accept-Language header; en-US is the fallback.
package locale

import (
	"embed"
	"io/fs"
	"sync"

	"github.com/visitlog/visitlog/logger"

	"github.com/gin-gonic/gin"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

//go:embed translation/*
var translationFS embed.FS

const localizerKey = "localizer"

var (
	i18nBundle *i18n.Bundle
	initOnce   sync.Once
	initErr    error
)

// InitLocalizer parses the embedded translation files. It is safe to call more than once.
func InitLocalizer() error {
	initOnce.Do(func() {
		bundle := i18n.NewBundle(language.MustParse("en-US"))
		bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
		if initErr = parseTranslationFiles(translationFS, bundle); initErr == nil {
			i18nBundle = bundle
		}
	})
	return initErr
}

func parseTranslationFiles(fsys fs.FS, bundle *i18n.Bundle) error {
	return fs.WalkDir(fsys, "translation", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		_, err = bundle.ParseMessageFileBytes(data, path)
		return err
	})
}

// NewLocalizer returns a localizer for the given language preferences.
func NewLocalizer(langs ...string) *i18n.Localizer {
	if err := InitLocalizer(); err != nil {
		logger.Warning("i18n init failed:", err)
		return nil
	}
	return i18n.NewLocalizer(i18nBundle, langs...)
}

// LocalizerMiddleware stores a request-scoped localizer in the gin context.
func LocalizerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var lang string
		if cookie, err := c.Request.Cookie("lang"); err == nil {
			lang = cookie.Value
		}
		c.Set(localizerKey, NewLocalizer(lang, c.GetHeader("Accept-Language")))
		c.Next()
	}
}

// Translate localizes key with localizer, falling back to the key itself.
func Translate(localizer *i18n.Localizer, key string, params map[string]any) string {
	if localizer == nil {
		return key
	}
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: params,
	})
	if err != nil {
		logger.Debugf("Failed to localize message %q: %v", key, err)
		return key
	}
	return msg
}

// I18n localizes key for the request in c.
func I18n(c *gin.Context, key string, params map[string]any) string {
	var localizer *i18n.Localizer
	if v, ok := c.Get(localizerKey); ok {
		localizer, _ = v.(*i18n.Localizer)
	}
	if localizer == nil {
		localizer = NewLocalizer()
	}
	return Translate(localizer, key, params)
}
