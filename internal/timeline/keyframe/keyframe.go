// Package keyframe implements keyframe enumeration, the preview-retime
// mapping, and the frame-rewrite commit. It walks animatable property
// tracks through a small descriptor-driven scan (Properties map +
// color channels) rather than reflection.
package keyframe

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"timelinehost/internal/timeline/project"
)

// Entry is one enumerated keyframe, keyed by frame in the result map.
type Entry struct {
	Frame         int
	Interpolation string
	Selected      bool
	Type          string // property name the point came from
	Owner         string // entity or effect id that owns the track
	InsidePreview bool
	BaseSelected  bool
	Icon          string // optional colorised SVG data URL (effect keyframes)
}

// Enumerate returns frame -> Entry for entity, applying the
// visibility gate, property filter, and preview in/out marking.
// anyEffectSelected reports whether any of the entity's nested or
// transition-level effects are selected (part of the clip visibility
// gate). palette maps an effect ID to its assigned icon color.
func Enumerate(entity project.KeyframeSource, anyEffectSelected bool, previewActive bool, propertyFilter string, preview *project.KeyframePreview, fps float64, palette map[string]string, svgTemplates map[string]string) map[int]Entry {
	if !visible(entity, anyEffectSelected, previewActive) {
		return map[int]Entry{}
	}

	out := map[int]Entry{}
	filter := strings.ToLower(propertyFilter)

	addTrack := func(owner string, name string, track *project.PropertyTrack, baseSelected bool, icon string) {
		if filter != "" && !strings.Contains(strings.ToLower(name), filter) {
			return
		}
		points := trackPoints(track)
		for _, pt := range points {
			frame := int(math.Round(pt.Co.X))
			entry := Entry{
				Frame:         frame,
				Interpolation: pt.Interpolation,
				Selected:      baseSelected,
				Type:          name,
				Owner:         owner,
				BaseSelected:  baseSelected,
				Icon:          icon,
			}
			if preview != nil {
				mapped := MappedSeconds(preview, frameToSeconds(frame, fps, entity))
				entry.InsidePreview = InsidePreview(mapped, preview.DisplayStart, preview.DisplayEnd, fps)
			} else {
				entry.InsidePreview = true
			}
			if existing, ok := out[frame]; !ok || (entry.Selected && !existing.Selected) {
				out[frame] = entry
			}
		}
	}

	for name, track := range entity.PropertyTracks() {
		addTrack(entity.ItemID(), name, track, entity.IsSelected(), "")
	}

	for _, eff := range entity.NestedEffects() {
		icon := colorisedIcon(svgTemplates, palette[eff.ID])
		for name, track := range eff.Properties {
			addTrack(eff.ID, name, track, eff.Selected, icon)
		}
	}

	return out
}

// visible implements the visibility gate: a clip (entity that is not
// itself always-selected-when-true-for-transitions) only contributes
// keyframes when selected, one of its effects is selected, or a
// preview is active; a transition contributes all keyframes when
// selected. Since Clip and Transition share the same gate shape here
// (selected-or-effect-or-preview), the same check serves both; callers
// pass anyEffectSelected=false for transitions since transitions have
// no independent gate on nested effect selection beyond their own.
func visible(entity project.KeyframeSource, anyEffectSelected, previewActive bool) bool {
	return entity.IsSelected() || anyEffectSelected || previewActive
}

// trackPoints returns a track's points (scalar) or, for a color track,
// the red channel's points.
func trackPoints(t *project.PropertyTrack) []project.KeyframePoint {
	if t == nil {
		return nil
	}
	if t.IsColor() {
		if t.Red.HasMultiplePoints() {
			return t.Red.Points
		}
		return nil
	}
	if t.HasMultiplePoints() {
		return t.Points
	}
	return nil
}

func colorisedIcon(templates map[string]string, color string) string {
	if color == "" {
		return ""
	}
	tmpl, ok := templates[project.InterpolationBezier]
	if !ok {
		return ""
	}
	return strings.Replace(tmpl, "{{fill}}", color, 1)
}

// TimelineSeconds converts a 1-based keyframe frame index to timeline
// seconds for the given entity: a clip offsets by position and its
// trimmed source start, a transition only by position. The snap engine
// uses this to turn visible keyframes into snap targets.
func TimelineSeconds(entity project.KeyframeSource, frame int, fps float64) float64 {
	return frameToSeconds(frame, fps, entity)
}

func frameToSeconds(frame int, fps float64, entity project.KeyframeSource) float64 {
	if fps == 0 {
		return 0
	}
	switch e := entity.(type) {
	case *project.Clip:
		return e.Position + (float64(frame-1)/fps - e.Start)
	case *project.Transition:
		return e.Position + float64(frame-1)/fps
	default:
		return float64(frame-1) / fps
	}
}

// Signature builds a stable memoisation key for an entity's enumerate
// call: (selected, effect-selection-list, property-filter,
// preview-signature). A repeated signature reuses the cached mapping.
func Signature(entity project.KeyframeSource, propertyFilter string, preview *project.KeyframePreview) string {
	var effectStates []string
	for _, e := range entity.NestedEffects() {
		effectStates = append(effectStates, fmt.Sprintf("%s:%v", e.ID, e.Selected))
	}
	sort.Strings(effectStates)

	previewSig := "none"
	if preview != nil {
		previewSig = fmt.Sprintf("%s:%g:%g:%g:%g", preview.Mode, preview.DisplayStart, preview.DisplayEnd, preview.ProjectedStart, preview.ProjectedEnd)
	}

	return fmt.Sprintf("%v|%s|%s|%s", entity.IsSelected(), strings.Join(effectStates, ","), propertyFilter, previewSig)
}

// Cache memoises the last enumeration result per entity ID, keyed by
// Signature. It is not safe for concurrent use without external
// synchronisation (callers hold the project store's lock already).
type Cache struct {
	bySignature map[string]cacheEntry
}

type cacheEntry struct {
	signature string
	result    map[int]Entry
}

// NewCache returns an empty enumeration cache.
func NewCache() *Cache {
	return &Cache{bySignature: map[string]cacheEntry{}}
}

// Get returns the cached result for entityID if its signature matches.
func (c *Cache) Get(entityID, signature string) (map[int]Entry, bool) {
	entry, ok := c.bySignature[entityID]
	if !ok || entry.signature != signature {
		return nil, false
	}
	return entry.result, true
}

// Put stores result for entityID under signature.
func (c *Cache) Put(entityID, signature string, result map[int]Entry) {
	c.bySignature[entityID] = cacheEntry{signature: signature, result: result}
}

// Invalidate drops any cached result for entityID.
func (c *Cache) Invalidate(entityID string) {
	delete(c.bySignature, entityID)
}
