package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/OfekItzhaki/horizon-hcm/pkg/authz"

// Config contains options for the Authorizer.
type Config struct {
	// Directory answers projection and membership queries. Required.
	Directory Directory

	// Audit receives denial entries. If nil, entries are discarded.
	Audit AuditLogger

	// Logger for structured decision logging. If nil, uses slog.Default().
	Logger *slog.Logger

	// Policies overrides the built-in policy table (for testing or new types).
	// If nil, DefaultPolicies() is used.
	Policies map[ResourceType]Policy

	// Tracer for decision spans. If nil, the global otel provider is used.
	Tracer trace.Tracer

	// Now stamps audit entries. If nil, time.Now is used.
	Now func() time.Time
}

// DefaultConfig returns a Config with sensible defaults.
// Directory must still be set before calling NewAuthorizer.
func DefaultConfig() Config {
	return Config{
		Audit:    NopAuditLogger{},
		Policies: DefaultPolicies(),
	}
}

// Authorizer evaluates resource ownership.
// All ownership decisions in the system flow through this single component.
type Authorizer struct {
	dir      Directory
	audit    AuditLogger
	logger   *slog.Logger
	policies map[ResourceType]Policy
	tracer   trace.Tracer
	now      func() time.Time
}

// NewAuthorizer creates an authorizer with the given configuration.
func NewAuthorizer(cfg Config) (*Authorizer, error) {
	if cfg.Directory == nil {
		return nil, errors.New("authz: directory is required")
	}

	a := &Authorizer{
		dir:    cfg.Directory,
		audit:  cfg.Audit,
		logger: cfg.Logger,
		tracer: cfg.Tracer,
		now:    cfg.Now,
	}
	if a.audit == nil {
		a.audit = NopAuditLogger{}
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.tracer == nil {
		a.tracer = otel.Tracer(tracerName)
	}
	if a.now == nil {
		a.now = time.Now
	}

	src := cfg.Policies
	if src == nil {
		src = defaultPolicies
	}
	a.policies = make(map[ResourceType]Policy, len(src))
	for k, v := range src {
		a.policies[k] = v
	}

	return a, nil
}

// Authorize decides whether req.Caller may act on the named resource.
//
// A non-nil error means the directory failed; the returned decision is a
// denial but carries no audit entry. Denials are never reported as errors:
// use Decision.Err to turn one into an AuthzError.
func (a *Authorizer) Authorize(ctx context.Context, req Request) (Decision, error) {
	start := time.Now()

	ctx, span := a.tracer.Start(ctx, "authz.Authorize", trace.WithAttributes(
		attribute.String("authz.resource_type", string(req.ResourceType)),
		attribute.String("authz.resource_id", req.ResourceID),
	))
	defer span.End()

	decision, err := a.evaluate(ctx, req)
	decision.Duration = time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "directory failure")
		a.logger.Error("authorization evaluation failed",
			"principal", callerID(req.Caller),
			"resource_type", req.ResourceType,
			"resource", req.ResourceID,
			"error", err,
		)
		return decision, err
	}

	span.SetAttributes(
		attribute.Bool("authz.allowed", decision.Allowed),
		attribute.String("authz.reason", string(decision.Reason)),
	)
	a.logDecision(req, decision)
	return decision, nil
}

func (a *Authorizer) evaluate(ctx context.Context, req Request) (Decision, error) {
	// Fail closed before any data access. None of these are audited.
	if req.Caller == nil || req.Caller.ID == "" {
		return Decision{Reason: ReasonMissingCaller}, nil
	}
	if req.ResourceID == "" {
		return Decision{Reason: ReasonMissingResourceID}, nil
	}
	if req.ResourceType == "" {
		return Decision{Reason: ReasonMissingResourceType}, nil
	}

	caller := req.Caller.ID

	if req.ResourceType == ResourceUserProfile && req.ResourceID == caller {
		return Decision{Allowed: true, Reason: ReasonSelfService}, nil
	}

	policy, ok := a.policies[req.ResourceType]
	if !ok {
		return a.deny(ctx, req, ReasonUnknownResourceType, ""), nil
	}

	var buildingID string
	if policy.Building != nil {
		b, err := policy.Building(ctx, a.dir, req.ResourceID)
		if err != nil {
			return Decision{}, fmt.Errorf("resolve building of %s %s: %w", req.ResourceType, req.ResourceID, err)
		}
		buildingID = b
	}

	if buildingID != "" {
		member, err := a.dir.HasMembership(ctx, buildingID, caller)
		if err != nil {
			return Decision{}, fmt.Errorf("check membership in building %s: %w", buildingID, err)
		}
		if member {
			return Decision{Allowed: true, Reason: ReasonCommitteeMember, BuildingID: buildingID}, nil
		}
	}

	if policy.Owner != nil {
		owner, err := policy.Owner(ctx, a.dir, req.ResourceID)
		if err != nil {
			return Decision{}, fmt.Errorf("resolve owner of %s %s: %w", req.ResourceType, req.ResourceID, err)
		}
		if owner == caller {
			return Decision{Allowed: true, Reason: ReasonResourceOwner, BuildingID: buildingID}, nil
		}
	}

	return a.deny(ctx, req, ReasonNotResourceOwner, buildingID), nil
}

// deny writes the audit entry for an ownership failure. Unknown types use
// the same recorded reason so the trail does not leak the policy table.
func (a *Authorizer) deny(ctx context.Context, req Request, reason ReasonType, buildingID string) Decision {
	entry := AuditEntry{
		Timestamp:    a.now(),
		RequestID:    req.RequestID,
		UserID:       req.Caller.ID,
		Action:       AuditActionAuthorizationFailed,
		ResourceType: string(req.ResourceType),
		ResourceID:   req.ResourceID,
		Metadata: AuditMetadata{
			Reason:   string(ReasonNotResourceOwner),
			Endpoint: req.Endpoint,
		},
	}
	if err := a.audit.Log(ctx, entry); err != nil {
		a.logger.Warn("audit write failed",
			"principal", entry.UserID,
			"resource_type", entry.ResourceType,
			"resource", entry.ResourceID,
			"error", err,
		)
	}
	return Decision{Reason: reason, BuildingID: buildingID, Audited: true}
}

func (a *Authorizer) logDecision(req Request, d Decision) {
	level := slog.LevelInfo
	if !d.Allowed {
		level = slog.LevelWarn
	}
	a.logger.Log(context.Background(), level, "authorization decision",
		"principal", callerID(req.Caller),
		"resource_type", req.ResourceType,
		"resource", req.ResourceID,
		"building", d.BuildingID,
		"endpoint", req.Endpoint,
		"request_id", req.RequestID,
		"decision", d.Allowed,
		"reason", d.Reason,
		"audited", d.Audited,
		"duration_us", d.Duration.Microseconds(),
	)
}

// PolicyCount returns the number of rows in the policy table.
func (a *Authorizer) PolicyCount() int {
	return len(a.policies)
}

func callerID(c *Caller) string {
	if c == nil {
		return ""
	}
	return c.ID
}
