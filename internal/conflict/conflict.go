// Package conflict reconciles divergent snapshots of the same logical record.
// Snapshots are plain maps exposing a "version" integer and a "lastModified"
// timestamp; everything here is pure and side-effect free.
package conflict

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	tickethub_errors "tickethub-core/pkg/errors"
)

type Type string

const (
	ConcurrentUpdate Type = "CONCURRENT_UPDATE"
	StaleUpdate      Type = "STALE_UPDATE"
	VersionMismatch  Type = "VERSION_MISMATCH"
)

// Detection describes the result of comparing two snapshots.
type Detection struct {
	HasConflict bool           `json:"hasConflict"`
	Type        Type           `json:"type,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
}

// Detect compares local and remote snapshots. Rules are evaluated in order:
// absent side, concurrent update, stale update, broken version progression.
// A remote exactly one version ahead is normal forward progress, not a conflict.
func Detect(local, remote map[string]any) Detection {
	if local == nil || remote == nil {
		return Detection{HasConflict: false}
	}

	localVersion, remoteVersion := versionOf(local), versionOf(remote)
	localModified, localOk := lastModifiedOf(local)
	remoteModified, remoteOk := lastModifiedOf(remote)

	if localVersion == remoteVersion && localOk && remoteOk && !localModified.Equal(remoteModified) {
		return Detection{
			HasConflict: true,
			Type:        ConcurrentUpdate,
			Details: map[string]any{
				"localVersion":   localVersion,
				"remoteVersion":  remoteVersion,
				"localModified":  localModified,
				"remoteModified": remoteModified,
			},
		}
	}

	if remoteVersion < localVersion {
		return Detection{
			HasConflict: true,
			Type:        StaleUpdate,
			Details: map[string]any{
				"localVersion":  localVersion,
				"remoteVersion": remoteVersion,
				"message":       "remote update is based on an older version",
			},
		}
	}

	if remoteVersion > localVersion+1 {
		return Detection{
			HasConflict: true,
			Type:        VersionMismatch,
			Details: map[string]any{
				"localVersion":  localVersion,
				"remoteVersion": remoteVersion,
				"message":       fmt.Sprintf("remote version %d skips ahead of local version %d", remoteVersion, localVersion),
			},
		}
	}

	return Detection{HasConflict: false}
}

// Strategy is the closed set of resolution strategies. Unknown names are
// rejected at the boundary, never dispatched dynamically.
type Strategy string

const (
	LastWriterWins   Strategy = "LAST_WRITER_WINS"
	IntelligentMerge Strategy = "INTELLIGENT_MERGE"
	ManualResolution Strategy = "MANUAL_RESOLUTION"
)

func Strategies() []Strategy {
	return []Strategy{LastWriterWins, IntelligentMerge, ManualResolution}
}

func StrategyFromString(name string) (Strategy, error) {
	switch Strategy(name) {
	case LastWriterWins, IntelligentMerge, ManualResolution:
		return Strategy(name), nil
	}
	return "", fmt.Errorf("%w: %q", tickethub_errors.ErrUnknownStrategy, name)
}

// Resolve applies a strategy to the pair of snapshots.
func Resolve(strategy Strategy, local, remote map[string]any) (map[string]any, error) {
	switch strategy {
	case LastWriterWins:
		return ResolveLastWriterWins(local, remote), nil
	case IntelligentMerge:
		return ResolveIntelligentMerge(local, remote), nil
	case ManualResolution:
		return FlagForManualResolution(local, remote), nil
	}
	return nil, fmt.Errorf("%w: %q", tickethub_errors.ErrUnknownStrategy, strategy)
}

// ResolveLastWriterWins keeps whichever snapshot was modified later. Exact
// ties go to local.
func ResolveLastWriterWins(local, remote map[string]any) map[string]any {
	if local == nil {
		return cloneMap(remote)
	}
	if remote == nil {
		return cloneMap(local)
	}

	localModified, _ := lastModifiedOf(local)
	remoteModified, _ := lastModifiedOf(remote)

	winner, side := local, "local"
	if remoteModified.After(localModified) {
		winner, side = remote, "remote"
	}

	resolved := cloneMap(winner)
	resolved["resolution"] = map[string]any{
		"strategy":       string(LastWriterWins),
		"resolvedAt":     time.Now().UTC(),
		"localModified":  localModified,
		"remoteModified": remoteModified,
		"winner":         side,
	}
	return resolved
}

// ResolveIntelligentMerge merges field by field over the union of keys.
// Identical values pass through, one-sided values are taken as is, numeric
// fields take the maximum, timestamp fields take the later value, and every
// other disagreement defaults to remote while being recorded for review.
func ResolveIntelligentMerge(local, remote map[string]any) map[string]any {
	if local == nil {
		return cloneMap(remote)
	}
	if remote == nil {
		return cloneMap(local)
	}

	merged := map[string]any{}
	var conflicts []map[string]any

	for _, field := range unionKeys(local, remote) {
		localValue, inLocal := local[field]
		remoteValue, inRemote := remote[field]

		switch {
		case !inLocal:
			merged[field] = remoteValue
		case !inRemote:
			merged[field] = localValue
		case reflect.DeepEqual(localValue, remoteValue):
			merged[field] = localValue
		default:
			if lv, lok := asNumber(localValue); lok {
				if rv, rok := asNumber(remoteValue); rok {
					merged[field] = maxNumber(lv, rv, localValue, remoteValue)
					continue
				}
			}
			if lt, lok := asTime(localValue); lok {
				if rt, rok := asTime(remoteValue); rok {
					if lt.After(rt) {
						merged[field] = localValue
					} else {
						merged[field] = remoteValue
					}
					continue
				}
			}
			conflicts = append(conflicts, map[string]any{
				"field":       field,
				"localValue":  localValue,
				"remoteValue": remoteValue,
			})
			merged[field] = remoteValue
		}
	}

	if len(conflicts) > 0 {
		merged["conflicts"] = conflicts
	}
	merged["resolution"] = map[string]any{
		"strategy":      string(IntelligentMerge),
		"resolvedAt":    time.Now().UTC(),
		"conflictCount": len(conflicts),
	}
	return merged
}

// FlagForManualResolution surfaces both snapshots unresolved.
func FlagForManualResolution(local, remote map[string]any) map[string]any {
	return map[string]any{
		"requiresManualResolution": true,
		"local":                    cloneMap(local),
		"remote":                   cloneMap(remote),
		"timestamp":                time.Now().UTC(),
	}
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

func unionKeys(a, b map[string]any) []string {
	seen := map[string]struct{}{}
	var keys []string
	for k := range a {
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	for k := range b {
		if _, ok := seen[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func versionOf(m map[string]any) int64 {
	v, ok := asNumber(m["version"])
	if !ok {
		return 0
	}
	return int64(v)
}

func lastModifiedOf(m map[string]any) (time.Time, bool) {
	for _, key := range []string{"lastModified", "timestamp"} {
		if raw, ok := m[key]; ok {
			if t, ok := asTime(raw); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// asNumber normalizes the numeric types JSON decoding can produce.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func maxNumber(lv, rv float64, localValue, remoteValue any) any {
	if lv >= rv {
		return localValue
	}
	return remoteValue
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}
