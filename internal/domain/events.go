// Package domain defines events for the event-driven architecture.
// Events enable loose coupling between the resolver, playback adapter and UI.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Track/waveform events
	EventTrackSelected    EventType = "track.selected"
	EventWaveformResolved EventType = "waveform.resolved"
	EventWaveformFallback EventType = "waveform.fallback"

	// Visualizer events
	EventAnalysisContextFailed EventType = "visualizer.context_failed"
	EventSettingsChanged       EventType = "visualizer.settings_changed"

	// Playback events
	EventPlaybackProgress EventType = "playback.progress"
	EventPlaybackState    EventType = "playback.state"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// TrackSelectedEvent is published when the displayed track changes.
type TrackSelectedEvent struct {
	baseEvent
	Track Track
}

// Type returns the event type.
func (e TrackSelectedEvent) Type() EventType {
	return EventTrackSelected
}

// NewTrackSelectedEvent creates a new TrackSelectedEvent.
func NewTrackSelectedEvent(track Track) TrackSelectedEvent {
	return TrackSelectedEvent{baseEvent: newBaseEvent(), Track: track}
}

// WaveformResolvedEvent is published when a waveform tier produces data for
// the current track, including the synchronous placeholder paint.
type WaveformResolvedEvent struct {
	baseEvent
	TrackID string
	Source  WaveformSource
	Length  int
}

// Type returns the event type.
func (e WaveformResolvedEvent) Type() EventType {
	return EventWaveformResolved
}

// NewWaveformResolvedEvent creates a new WaveformResolvedEvent.
func NewWaveformResolvedEvent(trackID string, source WaveformSource, length int) WaveformResolvedEvent {
	return WaveformResolvedEvent{baseEvent: newBaseEvent(), TrackID: trackID, Source: source, Length: length}
}

// WaveformFallbackEvent is published when the last-resort analysis tier fails
// and the synthetic placeholder is retained as the final display. The UI
// surfaces it as a subtle, non-blocking notice.
type WaveformFallbackEvent struct {
	baseEvent
	TrackID string
	Reason  string
}

// Type returns the event type.
func (e WaveformFallbackEvent) Type() EventType {
	return EventWaveformFallback
}

// NewWaveformFallbackEvent creates a new WaveformFallbackEvent.
func NewWaveformFallbackEvent(trackID, reason string) WaveformFallbackEvent {
	return WaveformFallbackEvent{baseEvent: newBaseEvent(), TrackID: trackID, Reason: reason}
}

// AnalysisContextFailedEvent is published once when the live analysis graph
// cannot be constructed. All real-time visualizers disable themselves and the
// UI shows a one-time dismissible notice.
type AnalysisContextFailedEvent struct {
	baseEvent
	Err error
}

// Type returns the event type.
func (e AnalysisContextFailedEvent) Type() EventType {
	return EventAnalysisContextFailed
}

// NewAnalysisContextFailedEvent creates a new AnalysisContextFailedEvent.
func NewAnalysisContextFailedEvent(err error) AnalysisContextFailedEvent {
	return AnalysisContextFailedEvent{baseEvent: newBaseEvent(), Err: err}
}

// SettingsChangedEvent is published when the visualizer settings change.
type SettingsChangedEvent struct {
	baseEvent
	Settings VisualizerSettings
}

// Type returns the event type.
func (e SettingsChangedEvent) Type() EventType {
	return EventSettingsChanged
}

// NewSettingsChangedEvent creates a new SettingsChangedEvent.
func NewSettingsChangedEvent(settings VisualizerSettings) SettingsChangedEvent {
	return SettingsChangedEvent{baseEvent: newBaseEvent(), Settings: settings}
}

// PlaybackProgressEvent is published periodically during playback.
type PlaybackProgressEvent struct {
	baseEvent
	Snapshot PlaybackSnapshot
}

// Type returns the event type.
func (e PlaybackProgressEvent) Type() EventType {
	return EventPlaybackProgress
}

// NewPlaybackProgressEvent creates a new PlaybackProgressEvent.
func NewPlaybackProgressEvent(snapshot PlaybackSnapshot) PlaybackProgressEvent {
	return PlaybackProgressEvent{baseEvent: newBaseEvent(), Snapshot: snapshot}
}

// PlaybackStateEvent is published when playing/buffering flags change.
type PlaybackStateEvent struct {
	baseEvent
	Snapshot PlaybackSnapshot
}

// Type returns the event type.
func (e PlaybackStateEvent) Type() EventType {
	return EventPlaybackState
}

// NewPlaybackStateEvent creates a new PlaybackStateEvent.
func NewPlaybackStateEvent(snapshot PlaybackSnapshot) PlaybackStateEvent {
	return PlaybackStateEvent{baseEvent: newBaseEvent(), Snapshot: snapshot}
}
