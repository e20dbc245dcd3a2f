package video_engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"timelinehost/internal/timeline/project"
	"timelinehost/models"
	"timelinehost/pkg/logger"
)

// SmartCompositor scores a user's atomic-clip catalogue against a set
// of requirements and assembles the winners directly into a timeline
// project tree: one layer of placed clips, crossfade transitions over
// each adjacent overlap, and alpha keyframe tracks driving the fades.
// The result loads straight into the timeline engine for hand editing.
type SmartCompositor struct {
	clips        []models.AtomicClip
	requirements CompositionRequirements
	algorithms   map[string]CompositionAlgorithm
}

type CompositionRequirements struct {
	TargetDuration  float64 `json:"target_duration"`
	Theme           string  `json:"theme"`
	Mood            string  `json:"mood"`
	Style           string  `json:"style"`
	MusicTempo      string  `json:"music_tempo"` // slow, medium, fast
	TransitionStyle string  `json:"transition_style"`
	MinClipDuration float64 `json:"min_clip_duration"`
	MaxClipDuration float64 `json:"max_clip_duration"`
	AvoidRepetition bool    `json:"avoid_repetition"`
}

// CompositionResult pairs the assembled timeline tree with the
// aggregate scores the selection produced.
type CompositionResult struct {
	Project       *project.Project       `json:"project"`
	TotalDuration float64                `json:"total_duration"`
	ClipCount     int                    `json:"clip_count"`
	QualityScore  float64                `json:"quality_score"`
	CohesionScore float64                `json:"cohesion_score"`
	Metadata      map[string]interface{} `json:"metadata"`
}

// placement is one selected clip with its source window and score,
// before it is laid onto the timeline.
type placement struct {
	clip     models.AtomicClip
	start    float64
	end      float64
	score    float64
}

// CompositionAlgorithm scores a single catalogue clip for one slot of
// the composition being built.
type CompositionAlgorithm interface {
	Score(clip models.AtomicClip, requirements CompositionRequirements, previous *models.AtomicClip) float64
}

func NewSmartCompositor(clips []models.AtomicClip, requirements CompositionRequirements) *SmartCompositor {
	return &SmartCompositor{
		clips:        clips,
		requirements: requirements,
		algorithms: map[string]CompositionAlgorithm{
			"smart_selection": &SmartSelectionAlgorithm{},
			"theme_based":     &ThemeBasedAlgorithm{},
			"emotion_driven":  &EmotionDrivenAlgorithm{},
		},
	}
}

// GenerateComposition selects clips with the named algorithm (falling
// back to smart_selection) and lays them onto a fresh project tree.
func (sc *SmartCompositor) GenerateComposition(ctx context.Context, algorithmName string) (*CompositionResult, error) {
	logger.Infof("Starting smart composition generation with algorithm: %s", algorithmName)

	algorithm, exists := sc.algorithms[algorithmName]
	if !exists {
		algorithm = sc.algorithms["smart_selection"]
	}

	placements := sc.selectClips(algorithm)
	if len(placements) == 0 {
		return nil, fmt.Errorf("no clips satisfy the composition requirements")
	}

	p := sc.buildProject(placements)

	result := &CompositionResult{
		Project:       p,
		TotalDuration: p.Duration,
		ClipCount:     len(placements),
		QualityScore:  averageScore(placements),
		CohesionScore: sc.cohesionScore(placements),
		Metadata: map[string]interface{}{
			"algorithm":       algorithmName,
			"generation_time": time.Now(),
		},
	}

	logger.Infof("Composition generated: %d clips, %.2fs, quality %.2f, cohesion %.2f",
		result.ClipCount, result.TotalDuration, result.QualityScore, result.CohesionScore)

	return result, nil
}

// selectClips greedily fills the target duration: at each slot, every
// eligible catalogue clip (already-used ones are skipped only when
// AvoidRepetition is set) is re-scored against the previous pick (so
// cohesion-aware algorithms can penalise jarring cuts) and the best
// one is trimmed to fit what remains.
func (sc *SmartCompositor) selectClips(algorithm CompositionAlgorithm) []placement {
	req := sc.requirements
	if req.TargetDuration <= 0 {
		req.TargetDuration = 60
	}
	if req.MinClipDuration <= 0 {
		req.MinClipDuration = 1
	}
	if req.MaxClipDuration <= 0 {
		req.MaxClipDuration = req.TargetDuration
	}

	var out []placement
	used := make(map[uint]bool)
	remaining := req.TargetDuration
	var previous *models.AtomicClip

	for remaining >= req.MinClipDuration {
		bestIdx := -1
		bestScore := 0.0
		for i, clip := range sc.clips {
			if used[clip.ID] && req.AvoidRepetition {
				continue
			}
			if clip.Duration < req.MinClipDuration {
				continue
			}
			score := algorithm.Score(clip, req, previous)
			if bestIdx == -1 || score > bestScore {
				bestIdx, bestScore = i, score
			}
		}
		if bestIdx == -1 {
			break
		}

		clip := sc.clips[bestIdx]
		take := clip.Duration
		if take > req.MaxClipDuration {
			take = req.MaxClipDuration
		}
		if take > remaining {
			take = remaining
		}

		out = append(out, placement{clip: clip, start: 0, end: take, score: bestScore})
		used[clip.ID] = true
		remaining -= take
		previous = &sc.clips[bestIdx]

		if req.AvoidRepetition && len(out) == len(sc.clips) {
			break
		}
	}

	return out
}

// buildProject lays the placements onto a single track. Adjacent clips
// overlap by the transition duration, and each overlap gets a
// transition entity whose alpha track fades the incoming clip in.
func (sc *SmartCompositor) buildProject(placements []placement) *project.Project {
	fps := sc.projectFPS(placements)
	transitionDur, interpolation := sc.transitionShape()

	p := &project.Project{
		FPS:        fps,
		Scale:      1,
		TickPixels: 100,
		Layers:     []*project.Layer{{Number: 1, Label: "Track 1", Height: 60}},
	}

	position := 0.0
	for i, pl := range placements {
		clipDur := pl.end - pl.start
		clip := &project.Clip{
			ID:       fmt.Sprintf("composed-clip-%d", i+1),
			FileID:   pl.clip.FileID,
			Layer:    1,
			Position: position,
			Start:    pl.start,
			End:      pl.end,
			Reader:   pl.clip.ReaderInfo(),
		}
		p.Clips = append(p.Clips, clip)

		if i < len(placements)-1 && transitionDur > 0 && transitionDur < clipDur {
			// The next clip slides under this one's tail; the
			// transition's alpha curve fades it in across the overlap.
			overlapStart := position + clipDur - transitionDur
			frames := int(transitionDur*fps.Value()+0.5) + 1
			p.Effects = append(p.Effects, &project.Transition{
				ID:       fmt.Sprintf("composed-transition-%d", i+1),
				Layer:    1,
				Position: overlapStart,
				Start:    0,
				End:      transitionDur,
				Properties: map[string]*project.PropertyTrack{
					"alpha": {Points: []project.KeyframePoint{
						{Co: project.Coordinate{X: 1, Y: 0}, Interpolation: interpolation},
						{Co: project.Coordinate{X: float64(frames), Y: 1}, Interpolation: interpolation},
					}},
				},
			})
			position = overlapStart
		} else {
			position += clipDur
		}
	}

	last := p.Clips[len(p.Clips)-1]
	p.Duration = last.Position + last.Duration()
	return p
}

// projectFPS picks the most common rational rate among the selected
// clips so the composition quantises on the grid most of its sources
// already sit on.
func (sc *SmartCompositor) projectFPS(placements []placement) project.Rational {
	counts := make(map[project.Rational]int)
	for _, pl := range placements {
		r := pl.clip.ReaderInfo().FPS
		if r.Value() > 0 {
			counts[r]++
		}
	}
	best := project.Rational{Num: 30, Den: 1}
	bestCount := 0
	keys := make([]project.Rational, 0, len(counts))
	for r := range counts {
		keys = append(keys, r)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Value() < keys[j].Value() })
	for _, r := range keys {
		if counts[r] > bestCount {
			best, bestCount = r, counts[r]
		}
	}
	return best
}

// transitionShape maps the requested style to an overlap duration and
// keyframe interpolation.
func (sc *SmartCompositor) transitionShape() (float64, string) {
	switch sc.requirements.TransitionStyle {
	case "cut":
		return 0, project.InterpolationConstant
	case "fast":
		return 0.2, project.InterpolationLinear
	case "smooth":
		return 1.0, project.InterpolationBezier
	default:
		return 0.5, project.InterpolationBezier
	}
}

func averageScore(placements []placement) float64 {
	if len(placements) == 0 {
		return 0
	}
	total := 0.0
	for _, pl := range placements {
		total += pl.score
	}
	return total / float64(len(placements))
}

// cohesionScore measures how consistently adjacent picks share
// category/mood/style, the batch proxy for visual continuity.
func (sc *SmartCompositor) cohesionScore(placements []placement) float64 {
	if len(placements) <= 1 {
		return 1.0
	}
	total := 0.0
	for i := 0; i < len(placements)-1; i++ {
		total += clipSimilarity(placements[i].clip, placements[i+1].clip)
	}
	return total / float64(len(placements)-1)
}

func clipSimilarity(a, b models.AtomicClip) float64 {
	similarity := 0.0
	if a.Category != "" && a.Category == b.Category {
		similarity += 0.4
	}
	if a.Mood != "" && a.Mood == b.Mood {
		similarity += 0.3
	}
	if a.Style != "" && a.Style == b.Style {
		similarity += 0.3
	}
	return similarity
}

// SmartSelectionAlgorithm balances duration fit, theme match, and
// source quality.
type SmartSelectionAlgorithm struct{}

func (a *SmartSelectionAlgorithm) Score(clip models.AtomicClip, req CompositionRequirements, previous *models.AtomicClip) float64 {
	return durationFitness(clip.Duration, req)*0.3 +
		themeFitness(clip, req)*0.4 +
		qualityFitness(clip)*0.3
}

// ThemeBasedAlgorithm weights thematic coherence above everything,
// with a continuity bonus for staying in the previous clip's category.
type ThemeBasedAlgorithm struct{}

func (a *ThemeBasedAlgorithm) Score(clip models.AtomicClip, req CompositionRequirements, previous *models.AtomicClip) float64 {
	score := themeFitness(clip, req)*0.7 + durationFitness(clip.Duration, req)*0.3
	if previous != nil && previous.Category != "" && clip.Category == previous.Category {
		score += 0.2
	}
	return score
}

// EmotionDrivenAlgorithm follows mood and pacing: fast tempo prefers
// short clips, slow tempo long ones, and mood whiplash between
// adjacent picks is penalised.
type EmotionDrivenAlgorithm struct{}

func (a *EmotionDrivenAlgorithm) Score(clip models.AtomicClip, req CompositionRequirements, previous *models.AtomicClip) float64 {
	score := 0.0
	if req.Mood != "" && clip.Mood == req.Mood {
		score += 0.5
	}

	switch req.MusicTempo {
	case "fast":
		if clip.Duration <= req.MinClipDuration*2 {
			score += 0.3
		}
	case "slow":
		if clip.Duration >= req.MaxClipDuration/2 {
			score += 0.3
		}
	default:
		score += durationFitness(clip.Duration, req) * 0.3
	}

	if previous != nil && previous.Mood != "" && clip.Mood != previous.Mood {
		score -= 0.2
	}
	return score
}

func durationFitness(duration float64, req CompositionRequirements) float64 {
	if duration < req.MinClipDuration || req.MaxClipDuration <= req.MinClipDuration {
		return 0.0
	}
	if duration > req.MaxClipDuration {
		duration = req.MaxClipDuration
	}
	ideal := (req.MinClipDuration + req.MaxClipDuration) / 2
	deviation := duration - ideal
	if deviation < 0 {
		deviation = -deviation
	}
	maxDeviation := req.MaxClipDuration - ideal
	if maxDeviation <= 0 {
		return 1.0
	}
	return 1.0 - deviation/maxDeviation
}

func themeFitness(clip models.AtomicClip, req CompositionRequirements) float64 {
	fitness := 0.0
	if req.Theme != "" && clip.Category == req.Theme {
		fitness += 0.5
	}
	if req.Mood != "" && clip.Mood == req.Mood {
		fitness += 0.3
	}
	if req.Style != "" && clip.Style == req.Style {
		fitness += 0.2
	}
	return fitness
}

func qualityFitness(clip models.AtomicClip) float64 {
	fitness := 0.0
	switch clip.Resolution {
	case "3840x2160", "1920x1080":
		fitness += 0.5
	case "1280x720":
		fitness += 0.3
	}
	if clip.Bitrate >= 2000 {
		fitness += 0.3
	} else if clip.Bitrate >= 1000 {
		fitness += 0.2
	}
	if clip.FrameRate >= 30 {
		fitness += 0.2
	}
	return fitness
}
