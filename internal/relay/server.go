package relay

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/gradelab/circuit-integrity/go-verifier/internal/ctz"
	"github.com/gradelab/circuit-integrity/go-verifier/internal/netlist"
	"github.com/gradelab/circuit-integrity/go-verifier/internal/policy"
	"github.com/gradelab/circuit-integrity/go-verifier/internal/readout"
	"github.com/gradelab/circuit-integrity/go-verifier/internal/session"
	"github.com/gradelab/circuit-integrity/go-verifier/internal/store"
	"github.com/gradelab/circuit-integrity/go-verifier/internal/telemetry"
)

// #region config

// Config holds the server's directory wiring.
type Config struct {
	// PolicyDir is where question policy files live; "" disables policyRef
	// resolution.
	PolicyDir string
	// StaticDir is served under /sim for local simulator testing; ""
	// disables it.
	StaticDir string
}

// #endregion config

// #region server

// Server relays per-tick circuit snapshots between the question page shim
// and the verification core.
type Server struct {
	log      *slog.Logger
	store    *store.Store
	config   Config
	upgrader websocket.Upgrader
}

// NewServer wires the relay. The store may be nil for ephemeral serving.
func NewServer(log *slog.Logger, st *store.Store, config Config) *Server {
	return &Server{
		log:    log,
		store:  st,
		config: config,
		upgrader: websocket.Upgrader{
			// The shim runs inside STACK's sandboxed iframe; origin checks
			// happen at the deployment proxy.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Router builds the gin engine: websocket endpoint, health check, and the
// optional static simulator directory.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ws", func(c *gin.Context) {
		s.handleSocket(c.Writer, c.Request)
	})
	if s.config.StaticDir != "" {
		r.Static("/sim", s.config.StaticDir)
	}
	return r
}

// #endregion server

// #region socket

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	var sess *session.Session

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("websocket closed unexpectedly", "error", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.writeError(conn, fmt.Sprintf("malformed message: %v", err))
			continue
		}

		switch env.Type {
		case MsgSubscribe:
			var msg SubscribeMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				s.writeError(conn, fmt.Sprintf("malformed subscribe: %v", err))
				continue
			}
			newSess, err := s.handleSubscribe(msg)
			if err != nil {
				s.writeError(conn, err.Error())
				continue
			}
			sess = newSess
			s.write(conn, SessionMessage{
				Type:      MsgSession,
				SessionID: sess.ID,
				Checked:   sess.PolicyAttached(),
			})

		case MsgTick:
			if sess == nil {
				s.writeError(conn, "tick before subscribe")
				continue
			}
			var msg TickMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				s.writeError(conn, fmt.Sprintf("malformed tick: %v", err))
				continue
			}
			record, elemsRecord, err := s.processTick(sess, msg)
			if err != nil {
				s.writeError(conn, err.Error())
				continue
			}
			s.write(conn, record)
			if elemsRecord != nil {
				s.write(conn, *elemsRecord)
			}

		default:
			s.writeError(conn, fmt.Sprintf("unknown message type %q", env.Type))
		}
	}
}

func (s *Server) write(conn *websocket.Conn, v interface{}) {
	if err := conn.WriteJSON(v); err != nil {
		s.log.Warn("websocket write failed", "error", err)
	}
}

func (s *Server) writeError(conn *websocket.Conn, reason string) {
	s.log.Warn("relay error", "reason", reason)
	s.write(conn, ErrorMessage{Type: MsgError, Reason: reason})
}

// #endregion socket

// #region subscribe

// handleSubscribe opens a session and attaches its policy, resolving a
// policyRef against the policy directory when no inline policy is given.
func (s *Server) handleSubscribe(msg SubscribeMessage) (*session.Session, error) {
	sess := session.New(msg.QuestionID, s.store)

	var p *policy.Policy
	switch {
	case msg.Policy != nil:
		resolved := msg.Policy.ToPolicy()
		p = &resolved
	case msg.PolicyRef != "":
		if s.config.PolicyDir == "" {
			return nil, fmt.Errorf("policyRef %q given but no policy directory configured", msg.PolicyRef)
		}
		loaded, err := policy.LoadForQuestion(s.config.PolicyDir, msg.PolicyRef)
		if err != nil {
			return nil, fmt.Errorf("resolve policy: %w", err)
		}
		p = &loaded
	}

	if p == nil {
		s.log.Info("session opened unchecked", "session", sess.ID, "question", msg.QuestionID)
		return sess, nil
	}
	if err := sess.AttachPolicy(*p); err != nil {
		return nil, err
	}
	s.log.Info("session opened", "session", sess.ID, "question", msg.QuestionID)
	return sess, nil
}

// #endregion subscribe

// #region tick

// processTick runs one snapshot through the session and builds the
// outgoing records. On an unverifiable tick the data record carries no
// integrity field and no elements record is produced.
func (s *Server) processTick(sess *session.Session, msg TickMessage) (telemetry.TickRecord, *telemetry.ElementsRecord, error) {
	export := msg.Export
	if export == "" && msg.Ctz != "" {
		// Ctz may be a bare value or a full simulator URL carrying ctz=.
		decoded, err := ctz.ExportFromURL(msg.Ctz)
		if err != nil {
			return telemetry.TickRecord{}, nil, fmt.Errorf("tick ctz: %w", err)
		}
		export = decoded
	}

	elements := LiveElements(msg.Elements)
	hadBaseline := sess.Baseline() != nil

	outcome, err := sess.Tick(export, elements)
	if err != nil {
		return telemetry.TickRecord{}, nil, err
	}

	// Policy sanity is only checkable once the baseline length is known.
	if !hadBaseline && sess.Baseline() != nil {
		b := sess.Baseline()
		for _, issue := range policy.Validate(b.Policy, len(b.Descriptors)) {
			s.log.Warn("policy issue", "session", sess.ID, "field", issue.Field, "reason", issue.Reason)
		}
	}

	tick := sess.TickCount()
	record := telemetry.NewTickRecord(tick, msg.Values)
	if outcome.Unverifiable {
		s.log.Warn("unverifiable tick", "session", sess.ID, "reason", outcome.Reason)
		return record, nil, nil
	}
	if outcome.Checked {
		record = record.WithIntegrity(outcome.Result)
		if outcome.Result == 0 {
			s.log.Info("integrity violation", "session", sess.ID, "reason", outcome.Reason)
		}
	}

	elemsRecord := telemetry.NewElementsRecord(tick, elementSummaries(elements, outcome.Descriptors))
	return record, &elemsRecord, nil
}

// elementSummaries joins labels and display values per element.
func elementSummaries(elements []netlist.Element, descriptors []netlist.ElementDescriptor) []telemetry.ElementSummary {
	labels := netlist.AssignLabels(elements)
	values := readout.Values(descriptors)
	summaries := make([]telemetry.ElementSummary, len(elements))
	for i, e := range elements {
		summaries[i] = telemetry.ElementSummary{
			Index: i,
			Type:  e.Category(),
			Label: labels.ByIndex[i],
		}
		if i < len(values) {
			summaries[i].Value = values[i]
		}
	}
	return summaries
}

// #endregion tick
