package janitor

import (
	stderrors "errors"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalidJobFile is returned when a cleanup job file cannot be used.
var ErrInvalidJobFile = errors.New("invalid cleanup job file")

// Job describes a single cleanup as written in a job file.
type Job struct {
	Name                   string `yaml:"name"                   json:"name,omitempty"`
	RootPath               string `yaml:"rootPath"               json:"rootPath"`
	RetentionWindow        string `yaml:"retentionWindow"        json:"retentionWindow"`
	Recursive              bool   `yaml:"recursive"              json:"recursive"`
	DeleteEmptyDirectories bool   `yaml:"deleteEmptyDirectories" json:"deleteEmptyDirectories"`
	DateRetrievalStrategy  string `yaml:"dateRetrievalStrategy"  json:"dateRetrievalStrategy"`
}

// JobFile is a collection of cleanup jobs.
type JobFile struct {
	Jobs []Job `yaml:"jobs" json:"jobs"`
}

// LoadJobFile reads the YAML job file, applies defaults and validates all jobs.
func LoadJobFile(path string) (*JobFile, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read job file %q", path)
	}

	return ParseJobFile(data)
}

// ParseJobFile parses YAML job file contents, applies defaults and validates all jobs.
func ParseJobFile(data []byte) (*JobFile, error) {
	var jf JobFile

	if err := yaml.Unmarshal(data, &jf); err != nil {
		return nil, errors.Wrapf(ErrInvalidJobFile, "unable to parse: %v", err)
	}

	jf.applyDefaults()

	if err := jf.Validate(); err != nil {
		return nil, err
	}

	return &jf, nil
}

func (jf *JobFile) applyDefaults() {
	for i := range jf.Jobs {
		j := &jf.Jobs[i]

		if j.DateRetrievalStrategy == "" {
			j.DateRetrievalStrategy = string(DefaultDateStrategy)
		}

		if j.Name == "" {
			j.Name = j.RootPath
		}
	}
}

// Validate ensures every job can be converted to cleanup options.
func (jf *JobFile) Validate() error {
	if len(jf.Jobs) == 0 {
		return errors.Wrap(ErrInvalidJobFile, "no jobs defined")
	}

	errs := []error{}

	for i, j := range jf.Jobs {
		if _, err := j.Options(); err != nil {
			errs = append(errs, errors.Wrapf(err, "jobs[%v]", i))
		}
	}

	if len(errs) > 0 {
		return stderrors.Join(append([]error{ErrInvalidJobFile}, errs...)...)
	}

	return nil
}

// Options converts the job to cleanup options.
func (j Job) Options() (Options, error) {
	if strings.TrimSpace(j.RootPath) == "" {
		return Options{}, errors.Wrap(ErrInvalidRoot, "rootPath must be provided")
	}

	window, err := ParseRetentionWindow(j.RetentionWindow)
	if err != nil {
		return Options{}, err
	}

	strategy, err := ParseDateRetrievalStrategy(j.DateRetrievalStrategy)
	if err != nil {
		return Options{}, err
	}

	return Options{
		RetentionWindow:        window,
		Recursive:              j.Recursive,
		DeleteEmptyDirectories: j.DeleteEmptyDirectories,
		DateStrategy:           strategy,
	}, nil
}
