package homepage

import (
	"errors"
	"net/url"
	"slices"
	"strings"

	"github.com/MrSnakeDoc/ministry/internal/domain"
)

// OrderStep spaces imported links so entries can be slotted in between later.
const OrderStep = 10

var ErrNoLinks = errors.New("no valid services found in homepage config")

// MapLinks turns every service with an absolute http(s) href into a link
// input. Order follows the file; services sharing one map entry are taken
// by name.
func MapLinks(config ServicesConfig) ([]domain.LinkInput, error) {
	var links []domain.LinkInput
	for _, group := range config {
		for _, groupName := range sortedKeys(group) {
			for _, entry := range group[groupName] {
				for _, name := range sortedKeys(entry) {
					props := entry[name]
					if !validHref(props.Href) {
						continue
					}
					links = append(links, linkInput(name, props, len(links)*OrderStep))
				}
			}
		}
	}
	if len(links) == 0 {
		return nil, ErrNoLinks
	}
	return links, nil
}

func linkInput(name string, props ServiceProps, order int) domain.LinkInput {
	title := strings.TrimSpace(name)
	href := strings.TrimSpace(props.Href)
	active := true
	in := domain.LinkInput{
		Title:    &title,
		URL:      &href,
		Order:    &order,
		IsActive: &active,
	}
	if props.Icon != "" {
		icon := props.Icon
		in.Icon = &icon
	}
	return in
}

func validHref(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Hostname() != ""
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
