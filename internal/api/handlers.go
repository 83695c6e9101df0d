package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/framewright/tenon/internal/apperr"
	"github.com/framewright/tenon/internal/frameservice"
	"github.com/framewright/tenon/internal/intersect"
	"github.com/framewright/tenon/internal/member"
	"github.com/framewright/tenon/internal/signature"
)

// Handler holds API route handlers.
type Handler struct {
	svc *frameservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *frameservice.Service) *Handler {
	return &Handler{svc: svc}
}

// Detect handles POST /api/detect.
func (h *Handler) Detect(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req DetectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.A.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("member a: "+err.Error()))
		return
	}
	if err := req.B.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("member b: "+err.Error()))
		return
	}

	res := h.svc.Detect(r.Context(), req.A.Datum(), req.B.Datum(), req.ToleranceMM)
	resp := DetectResponse{Result: res}
	if res.Type != intersect.None {
		if id, ok := h.svc.ProposeJointType(res.Type); ok {
			resp.ProposedJointType = id
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Scan handles POST /api/detect/scan.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if len(req.Members) < 2 {
		writeJSON(w, http.StatusBadRequest, errorBody("at least two members are required"))
		return
	}
	members := make([]member.Datum, 0, len(req.Members))
	for i, m := range req.Members {
		if err := m.Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("member "+strconv.Itoa(i)+": "+err.Error()))
			return
		}
		members = append(members, m.Datum())
	}

	results := h.svc.Scan(r.Context(), members, req.ToleranceMM)
	if results == nil {
		results = []intersect.Result{}
	}
	writeJSON(w, http.StatusOK, ScanResponse{Results: results, Total: len(results)})
}

// Evaluate handles POST /api/joints/evaluate.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.JointType == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("joint_type is required"))
		return
	}
	if err := req.A.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("member a: "+err.Error()))
		return
	}
	if err := req.B.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("member b: "+err.Error()))
		return
	}

	res := h.svc.Detect(r.Context(), req.A.Datum(), req.B.Datum(), req.ToleranceMM)
	if res.Type == intersect.None {
		// A non-match is a normal negative result, not an error.
		writeJSON(w, http.StatusOK, EvaluateResponse{Intersection: res})
		return
	}

	ev, err := h.svc.EvaluateJoint(r.Context(), req.JointType, res, req.Parameters)
	if err != nil {
		if errors.Is(err, apperr.ErrUnknownJointType) {
			writeJSON(w, http.StatusNotFound, errorBody("unknown joint type: "+req.JointType))
			return
		}
		slog.Error("evaluate failed", slog.String("joint_type", req.JointType), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, EvaluateResponse{
		Intersection:     res,
		Evaluation:       ev,
		FabricationReady: ev.FabricationReady(),
	})
}

// MemberSignature handles POST /api/members/signature.
func (h *Handler) MemberSignature(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req SignatureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Member.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("member: "+err.Error()))
		return
	}
	joints := make([]signature.Joint, 0, len(req.Joints))
	for i, j := range req.Joints {
		if err := j.Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("joint "+strconv.Itoa(i)+": "+err.Error()))
			return
		}
		joints = append(joints, j.Domain())
	}

	sig := h.svc.MemberSignature(r.Context(), req.Member.Datum(), joints)
	writeJSON(w, http.StatusOK, sig)
}

// JointTypes handles GET /api/joint-types.
func (h *Handler) JointTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, JointTypesResponse{
		JointTypes: h.svc.JointTypes(r.Context()),
		Categories: h.svc.Categories(r.Context()),
	})
}

// Compatible handles GET /api/joint-types/compatible.
func (h *Handler) Compatible(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	primary := q.Get("primary")
	secondary := q.Get("secondary")
	if primary == "" || secondary == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("primary and secondary roles are required"))
		return
	}
	angle, err := strconv.ParseFloat(q.Get("angle"), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("angle must be a number"))
		return
	}

	defs := h.svc.Compatible(r.Context(), member.Role(primary), member.Role(secondary), angle)
	if defs == nil {
		defs = []frameservice.JointTypeInfo{}
	}
	writeJSON(w, http.StatusOK, CompatibleResponse{JointTypes: defs})
}
