// Package i18n holds the localized strings used by game help.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// BaseLocale is used when a requested locale has no catalog.
const BaseLocale = "en"

// KeyFriendCall formats a friend's guess: name, then upper-case letter.
const KeyFriendCall = "game_help.friend_call"

//go:embed locales/*.yaml
var localesFS embed.FS

type catalogFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
	Friends  []string          `yaml:"friends"`
}

// Catalog is the resolved message set for one locale.
type Catalog struct {
	tag     language.Tag
	printer *message.Printer
	friends []string
}

var (
	loadOnce sync.Once
	loaded   map[language.Tag]catalogFile
	tags     []language.Tag
	matcher  language.Matcher
	loadErr  error
)

// Load resolves the catalog closest to locale, falling back to BaseLocale.
func Load(locale string) (*Catalog, error) {
	loadOnce.Do(func() {
		loaded, tags, loadErr = register(localesFS)
		if loadErr == nil {
			matcher = language.NewMatcher(tags)
		}
	})
	if loadErr != nil {
		return nil, loadErr
	}

	requested, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		requested = language.MustParse(BaseLocale)
	}
	_, index, _ := matcher.Match(requested)
	tag := tags[index]
	file := loaded[tag]
	return &Catalog{
		tag:     tag,
		printer: message.NewPrinter(tag),
		friends: append([]string{}, file.Friends...),
	}, nil
}

// Tag is the resolved language.
func (c *Catalog) Tag() language.Tag { return c.tag }

// Friends returns the default phone-a-friend name pool.
func (c *Catalog) Friends() []string {
	return append([]string{}, c.friends...)
}

// FriendCall renders the phone-a-friend message.
func (c *Catalog) FriendCall(name, letter string) string {
	return c.printer.Sprintf(KeyFriendCall, name, letter)
}

// register parses every embedded catalog into x/text/message. The base
// locale is always first in the returned tag list so it wins on no match.
func register(catalogFS fs.FS) (map[language.Tag]catalogFile, []language.Tag, error) {
	paths, err := fs.Glob(catalogFS, "locales/*.yaml")
	if err != nil {
		return nil, nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	sort.Strings(paths)

	files := make(map[language.Tag]catalogFile, len(paths))
	base := language.MustParse(BaseLocale)
	order := []language.Tag{base}
	for _, path := range paths {
		data, err := fs.ReadFile(catalogFS, path)
		if err != nil {
			return nil, nil, fmt.Errorf("read catalog %s: %w", path, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, nil, fmt.Errorf("parse catalog %s: %w", path, err)
		}
		tag, err := language.Parse(file.Locale)
		if err != nil {
			return nil, nil, fmt.Errorf("catalog %s: parse locale %q: %w", path, file.Locale, err)
		}
		if len(file.Friends) == 0 {
			return nil, nil, fmt.Errorf("catalog %s: friends list is required", path)
		}
		for key, value := range file.Messages {
			if err := message.SetString(tag, key, value); err != nil {
				return nil, nil, fmt.Errorf("catalog %s: set %q: %w", path, key, err)
			}
		}
		files[tag] = file
		if tag != base {
			order = append(order, tag)
		}
	}
	if _, ok := files[base]; !ok {
		return nil, nil, fmt.Errorf("base locale %s is not defined in catalogs", BaseLocale)
	}
	return files, order, nil
}
