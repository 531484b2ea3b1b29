package xapi

import (
	"fmt"

	"github.com/ternarybob/recenseo/pkg/models"
)

// The upstream represents the same logical entity with at least two
// structurally different nestings: a newer "core" field bag and the older
// "legacy" flat bag, partially overlapping. The merge rule lives here and
// only here: prefer the newer bag, fall back to the legacy bag, and give up
// on an entity only when its identity survives in neither. Schema drift is
// absorbed by widening the fallback chain, never by assuming one shape.

// fieldBags merges variant representations of one entity in precedence order.
type fieldBags struct {
	bags []map[string]any
}

// bagsOf collects the named sub-bags of raw, highest precedence first.
// Missing bags are simply skipped.
func bagsOf(raw map[string]any, names ...string) fieldBags {
	var bags []map[string]any
	for _, name := range names {
		if bag := asMap(raw[name]); bag != nil {
			bags = append(bags, bag)
		}
	}
	return fieldBags{bags: bags}
}

func (f fieldBags) str(key string) string {
	for _, bag := range f.bags {
		if v, ok := bag[key]; ok {
			if s := asString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func (f fieldBags) count(key string) int {
	for _, bag := range f.bags {
		if v, ok := bag[key]; ok {
			return asInt(v)
		}
	}
	return 0
}

func (f fieldBags) flag(key string) bool {
	for _, bag := range f.bags {
		if v, ok := bag[key]; ok {
			return asBool(v)
		}
	}
	return false
}

func (f fieldBags) empty() bool {
	return len(f.bags) == 0
}

// ParseMember normalizes one user_results.result object. The second return
// is false when the entity must be skipped: a member without usable identity
// data is worse than a dropped member, so no partial record is ever built.
func ParseMember(raw map[string]any) (models.MemberRecord, bool) {
	if raw == nil {
		return models.MemberRecord{}, false
	}

	bags := bagsOf(raw, "core", "legacy")

	id := asString(raw["rest_id"])
	if id == "" {
		id = bags.str("id_str")
	}
	if id == "" || bags.empty() {
		return models.MemberRecord{}, false
	}

	member := models.MemberRecord{
		ID:             id,
		Handle:         bags.str("screen_name"),
		Name:           bags.str("name"),
		Description:    bags.str("description"),
		FollowersCount: bags.count("followers_count"),
		FollowingCount: bags.count("friends_count"),
		Verified:       asBool(raw["is_blue_verified"]) || bags.flag("verified"),
		CreatedAt:      bags.str("created_at"),
		Location:       bags.str("location"),
		URL:            bags.str("url"),
	}

	member.ProfileImageURL = bags.str("profile_image_url_https")
	if member.ProfileImageURL == "" {
		// Newest shape hoists the avatar out of the bags entirely.
		if avatar := asMap(raw["avatar"]); avatar != nil {
			member.ProfileImageURL = asString(avatar["image_url"])
		}
	}

	return member, true
}

// ParseList normalizes a raw list object. Lists keep a flat shape across
// response generations; only the owner sub-entity has grown variant bags.
// Missing required structure (id, name) is an error, missing anything else
// just defaults.
func ParseList(raw map[string]any) (models.ListRecord, error) {
	id := asString(raw["id_str"])
	name := asString(raw["name"])
	if id == "" || name == "" {
		return models.ListRecord{}, fmt.Errorf("list payload missing required id/name structure")
	}

	record := models.ListRecord{
		ID:              id,
		Name:            name,
		Description:     asString(raw["description"]),
		MemberCount:     asInt(raw["member_count"]),
		SubscriberCount: asInt(raw["subscriber_count"]),
		Mode:            parseMode(asString(raw["mode"])),
		CreatedAt:       int64(asInt(raw["created_at"])),
	}

	if owner := digMap(raw, "user_results", "result"); owner != nil {
		ownerBags := bagsOf(owner, "core", "legacy")
		record.OwnerHandle = ownerBags.str("screen_name")
		record.OwnerName = ownerBags.str("name")
	}

	return record, nil
}

func parseMode(mode string) models.ListMode {
	if mode == string(models.ListModePrivate) {
		return models.ListModePrivate
	}
	return models.ListModePublic
}

// ParseMembersPage walks a ListMembers response: member entries are
// normalized in response order, and the bottom-cursor sentinel entry, when
// present, supplies the next cursor. Invalid member entries are dropped.
func ParseMembersPage(payload map[string]any) ([]models.MemberRecord, string) {
	var members []models.MemberRecord
	var nextCursor string

	instructions := digSlice(payload, "data", "list", "members_timeline", "timeline", "instructions")
	for _, inst := range instructions {
		for _, rawEntry := range asSlice(asMap(inst)["entries"]) {
			content := asMap(asMap(rawEntry)["content"])
			if content == nil {
				continue
			}

			if result := digMap(content, "itemContent", "user_results", "result"); result != nil {
				if member, ok := ParseMember(result); ok {
					members = append(members, member)
				}
			}

			if cursor, ok := cursorValue(content); ok {
				nextCursor = cursor
			}
		}
	}

	return members, nextCursor
}

// cursorValue extracts the bottom-cursor sentinel from an entry content,
// tolerating both the flat and the itemContent-nested placement.
func cursorValue(content map[string]any) (string, bool) {
	if asString(content["cursorType"]) == "Bottom" {
		return asString(content["value"]), true
	}
	if item := asMap(content["itemContent"]); item != nil {
		if asString(item["cursorType"]) == "Bottom" {
			return asString(item["value"]), true
		}
	}
	return "", false
}

// ParseListCollection walks a ListsManagementPageTimeline response. Lists
// appear both as direct timeline entries and inside module item groups;
// both placements are collected in response order.
func ParseListCollection(payload map[string]any) []models.ListRecord {
	var lists []models.ListRecord

	appendList := func(raw map[string]any) {
		if raw == nil {
			return
		}
		if record, err := ParseList(raw); err == nil {
			lists = append(lists, record)
		}
	}

	instructions := digSlice(payload, "data", "viewer", "list_management_timeline", "timeline", "instructions")
	for _, inst := range instructions {
		for _, rawEntry := range asSlice(asMap(inst)["entries"]) {
			content := asMap(asMap(rawEntry)["content"])
			if content == nil {
				continue
			}

			for _, rawItem := range asSlice(content["items"]) {
				appendList(digMap(asMap(rawItem), "item", "itemContent", "list"))
			}

			appendList(digMap(content, "itemContent", "list"))
		}
	}

	return lists
}

// ---- loose-typed JSON helpers ----

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	default:
		return 0
	}
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// digMap walks nested maps by key and returns the map at the end of the
// path, or nil when any hop is missing or differently shaped.
func digMap(m map[string]any, path ...string) map[string]any {
	current := m
	for _, key := range path {
		current = asMap(current[key])
		if current == nil {
			return nil
		}
	}
	return current
}

// digSlice walks nested maps and returns the slice at the final key.
func digSlice(m map[string]any, path ...string) []any {
	if len(path) == 0 {
		return nil
	}
	parent := digMap(m, path[:len(path)-1]...)
	if parent == nil {
		return nil
	}
	return asSlice(parent[path[len(path)-1]])
}
