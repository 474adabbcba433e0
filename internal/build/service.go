package build

import (
	"io"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/mdsite/internal/config"
	"git.home.luguber.info/inful/mdsite/internal/metrics"
)

// Stage names used in logs and metrics.
const (
	StageDiscover = "discover"
	StageWrapper  = "wrapper"
	StageParse    = "parse"
	StageGroup    = "group"
	StageRender   = "render"
)

// Status represents the outcome of a build execution.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Result describes a finished build.
type Result struct {
	BuildID string
	Status  Status
	// Sources are the discovered source files, sorted.
	Sources []string
	// Outputs are the files written, in write order.
	Outputs []string
	// Groups are the group keys in first-seen order.
	Groups    []string
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Service executes builds for one configuration.
type Service struct {
	cfg      *config.Config
	recorder metrics.Recorder
	stdout   io.Writer
	newID    func() string
}

// Option customizes a Service.
type Option func(*Service)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithStdout redirects dry-run output.
func WithStdout(w io.Writer) Option {
	return func(s *Service) {
		if w != nil {
			s.stdout = w
		}
	}
}

// WithBuildIDFunc replaces the build ID generator.
func WithBuildIDFunc(f func() string) Option {
	return func(s *Service) {
		if f != nil {
			s.newID = f
		}
	}
}

// NewService creates a Service. The configuration is not copied and must
// not change while a build runs.
func NewService(cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		cfg:      cfg,
		recorder: metrics.NoopRecorder{},
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
