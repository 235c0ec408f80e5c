package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/pescuma/tia/lib/consoles"
	"github.com/pescuma/tia/lib/protocol"
)

// limit waits for a free worker before letting the request through.
func (s *Server) limit(c *gin.Context) {
	s.metrics.inFlight.Inc()
	defer s.metrics.inFlight.Dec()

	err := s.workers.Acquire(c.Request.Context(), 1)
	if err != nil {
		c.Abort()
		return
	}
	defer s.workers.Release(1)

	c.Next()
}

func (s *Server) handle(c *gin.Context) {
	start := time.Now()

	var req protocol.Request
	err := c.ShouldBindJSON(&req)
	if err != nil {
		err = errors.Wrapf(protocol.ErrInvalidRequest, "unparsable body: %v", err)
	} else {
		err = req.Validate()
	}

	name := lo.Ternary(err == nil, req.Request, "invalid")

	var result any
	if err == nil {
		result, err = s.dispatch(c, &req)
	}

	s.metrics.requests.WithLabelValues(name, outcome(err)).Inc()
	s.metrics.duration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		s.console.Debugf("%v failed: %v", name, err)
		sendError(c, err)
		return
	}

	sendResult(c, result)
}

func (s *Server) dispatch(c *gin.Context, req *protocol.Request) (any, error) {
	ctx := c.Request.Context()

	switch req.Request {
	case protocol.DisabledTests:
		tests, err := s.analyzer.DisabledTests(ctx, req.Project, *req.Digest)
		if err != nil {
			return nil, err
		}

		s.metrics.disabledTests.WithLabelValues(req.Project).Add(float64(len(tests)))
		return tests, nil

	case protocol.AddReport:
		err := s.analyzer.AddReport(ctx, req.Project, req.Test, req.Classes)
		if err != nil {
			return nil, err
		}

		s.metrics.reports.WithLabelValues(req.Project).Inc()
		return protocol.OK, nil

	case protocol.WriteReport:
		err := s.analyzer.WriteReport(ctx, req.Project, *req.Digest)
		if err != nil {
			return nil, err
		}
		return protocol.OK, nil

	case protocol.Log:
		level, err := consoles.ParseLevel(req.Level)
		if err != nil {
			return nil, errors.Wrap(protocol.ErrInvalidRequest, err.Error())
		}

		err = s.analyzer.Log(ctx, level, *req.Message)
		if err != nil {
			return nil, err
		}
		return protocol.OK, nil

	default:
		return nil, errors.Wrapf(protocol.ErrInvalidRequest, "unknown request: %v", req.Request)
	}
}
