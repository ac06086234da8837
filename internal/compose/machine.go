// Package compose owns the select → generate → edit → preview flow that
// takes a user from picking recipients to a confirmed bulk send. The
// transition rules live in a pure function so they can be tested without a
// session; Session layers state, side effects, and the external services on
// top.
package compose

// Step is the current position in the compose flow.
type Step string

const (
	StepSelect   Step = "select"
	StepGenerate Step = "generate"
	StepEdit     Step = "edit"
	StepPreview  Step = "preview"
)

// Event is a user action or completed async operation that may advance the
// flow.
type Event string

const (
	EventConfirmSelection Event = "confirm_selection"
	EventGenerated        Event = "generated"
	EventTemplateApplied  Event = "template_applied"
	EventPreview          Event = "preview"
	EventBackToGenerate   Event = "back_to_generate"
	EventSendSucceeded    Event = "send_succeeded"
	EventEditAgain        Event = "edit_again"
	EventStartOver        Event = "start_over"
)

// Effect is a side effect the caller must apply alongside a transition.
type Effect string

const (
	// EffectWarnEmptySelection asks the caller to surface a warning; the
	// step does not change.
	EffectWarnEmptySelection Effect = "warn_empty_selection"
	// EffectClearDraft resets the working draft.
	EffectClearDraft Effect = "clear_draft"
	// EffectClearSelection resets the recipient selection.
	EffectClearSelection Effect = "clear_selection"
)

// Next computes the step that follows cur when ev fires with the given
// selection size. It returns the next step, any effects to apply, and
// whether the event was legal from cur. An illegal event leaves the step
// unchanged with ok=false. The empty-selection guard is the only guarded
// edge: it reports ok=false together with a warning effect.
func Next(cur Step, ev Event, selectionSize int) (Step, []Effect, bool) {
	switch cur {
	case StepSelect:
		if ev == EventConfirmSelection {
			if selectionSize == 0 {
				return cur, []Effect{EffectWarnEmptySelection}, false
			}
			return StepGenerate, nil, true
		}
	case StepGenerate:
		switch ev {
		case EventGenerated, EventTemplateApplied:
			return StepEdit, nil, true
		}
	case StepEdit:
		switch ev {
		case EventPreview:
			return StepPreview, nil, true
		case EventBackToGenerate:
			return StepGenerate, nil, true
		}
	case StepPreview:
		switch ev {
		case EventSendSucceeded:
			return StepSelect, []Effect{EffectClearSelection, EffectClearDraft}, true
		case EventEditAgain:
			return StepEdit, nil, true
		case EventStartOver:
			return StepSelect, []Effect{EffectClearSelection, EffectClearDraft}, true
		}
	}
	return cur, nil, false
}
