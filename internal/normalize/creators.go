package normalize

import (
	"strings"

	"github.com/mrlokans/refbase/internal/entities"
	"github.com/mrlokans/refbase/internal/formats"
)

// SplitCreators converts raw creator names into structured entries,
// preserving source order and role. "Last, First" splits on the first
// comma; "First Last" splits on the final space; a single token becomes a
// bare last name.
func SplitCreators(raw []formats.Creator) []entities.Creator {
	creators := make([]entities.Creator, 0, len(raw))
	for _, c := range raw {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}

		var last, first string
		if idx := strings.Index(name, ","); idx >= 0 {
			last = strings.TrimSpace(name[:idx])
			first = strings.TrimSpace(name[idx+1:])
		} else if idx := strings.LastIndex(name, " "); idx >= 0 {
			first = strings.TrimSpace(name[:idx])
			last = strings.TrimSpace(name[idx+1:])
		} else {
			last = name
		}

		role, ok := creatorRoleMap[c.Role]
		if !ok {
			role = "author"
		}

		creators = append(creators, entities.Creator{
			CreatorType: role,
			LastName:    last,
			FirstName:   first,
			Position:    len(creators),
		})
	}
	return creators
}
