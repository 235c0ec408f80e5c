package protocol

import (
	"github.com/pkg/errors"

	"github.com/pescuma/tia/lib/consoles"
)

const (
	DisabledTests = "disabledTests"
	AddReport     = "addReport"
	WriteReport   = "writeReport"
	Log           = "log"
)

// OK is the result of every request that has nothing to return.
const OK = "ok"

var ErrInvalidRequest = errors.New("invalid request")

// Request is one call to the coordination server. Which fields are needed depends on Request.
type Request struct {
	Request string   `json:"request"`
	Project string   `json:"project,omitempty"`
	Digest  *string  `json:"digest,omitempty"`
	Test    string   `json:"test,omitempty"`
	Classes []string `json:"classes"`
	Level   string   `json:"level,omitempty"`
	Message *string  `json:"message,omitempty"`
}

// Response holds either Result or Error.
type Response struct {
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (r *Request) Validate() error {
	switch r.Request {
	case DisabledTests, WriteReport:
		if r.Project == "" {
			return missing(r.Request, "project")
		}
		if r.Digest == nil {
			return missing(r.Request, "digest")
		}

	case AddReport:
		if r.Project == "" {
			return missing(r.Request, "project")
		}
		if r.Test == "" {
			return missing(r.Request, "test")
		}
		if r.Classes == nil {
			return missing(r.Request, "classes")
		}

	case Log:
		if r.Level == "" {
			return missing(r.Request, "level")
		}
		if r.Message == nil {
			return missing(r.Request, "message")
		}
		_, err := consoles.ParseLevel(r.Level)
		if err != nil {
			return errors.Wrapf(ErrInvalidRequest, "%v: %v", r.Request, err)
		}

	case "":
		return errors.Wrap(ErrInvalidRequest, "missing field: request")

	default:
		return errors.Wrapf(ErrInvalidRequest, "unknown request: %v", r.Request)
	}

	return nil
}

func missing(request string, field string) error {
	return errors.Wrapf(ErrInvalidRequest, "%v: missing field: %v", request, field)
}

func NewDisabledTests(project string, digest string) *Request {
	return &Request{Request: DisabledTests, Project: project, Digest: &digest}
}

func NewAddReport(project string, test string, classes []string) *Request {
	if classes == nil {
		classes = []string{}
	}
	return &Request{Request: AddReport, Project: project, Test: test, Classes: classes}
}

func NewWriteReport(project string, digest string) *Request {
	return &Request{Request: WriteReport, Project: project, Digest: &digest}
}

func NewLog(level string, message string) *Request {
	return &Request{Request: Log, Level: level, Message: &message}
}
