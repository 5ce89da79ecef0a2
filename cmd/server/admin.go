package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Simplici0/shopfloor/internal/machine"
	"github.com/Simplici0/shopfloor/internal/shipments"
)

type thresholdBody struct {
	Value float64 `json:"value"`
}

func (s *server) handleThresholdGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, thresholdBody{Value: s.threshold.Threshold(r.Context())})
}

func (s *server) handleThresholdPut(w http.ResponseWriter, r *http.Request) {
	var req thresholdBody
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.threshold.SetThreshold(r.Context(), req.Value); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.log.Info("machine threshold updated", zap.Float64("value", req.Value))
	writeJSON(w, http.StatusOK, req)
}

type machinesResponse struct {
	Machines []machine.Machine `json:"machines"`
	Resolved bool              `json:"roles_resolved"`
}

func (s *server) handleMachinesList(w http.ResponseWriter, r *http.Request) {
	machines, err := s.store.ListMachines(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	_, resolved := machine.ResolveRoles(machines)
	writeJSON(w, http.StatusOK, machinesResponse{Machines: machines, Resolved: resolved})
}

type machineRequest struct {
	Name             string       `json:"name"`
	Comment          string       `json:"comment"`
	Role             machine.Role `json:"role"`
	UsageLimitPerDay int          `json:"usage_limit_per_day"`
}

// handleMachinesCreate stores a machine. Without an explicit role the
// machine gets the role inferred from its name, comment and age.
func (s *server) handleMachinesCreate(w http.ResponseWriter, r *http.Request) {
	var req machineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	m := machine.Machine{
		ID:               uuid.NewString(),
		Name:             strings.TrimSpace(req.Name),
		Comment:          strings.TrimSpace(req.Comment),
		Role:             req.Role,
		UsageLimitPerDay: req.UsageLimitPerDay,
		CreatedAt:        s.now(),
	}
	if m.Name == "" {
		s.writeError(w, r, fmt.Errorf("%w: name is required", errBadRequest))
		return
	}
	if m.UsageLimitPerDay < 0 {
		s.writeError(w, r, fmt.Errorf("%w: usage_limit_per_day must be greater than or equal to 0", errBadRequest))
		return
	}
	if m.Role != "" && !m.Role.Valid() {
		s.writeError(w, r, fmt.Errorf("%w: unknown role %q", errBadRequest, m.Role))
		return
	}

	if m.Role == "" {
		existing, err := s.store.ListMachines(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		m.Role = machine.InferRoles(append(existing, m))[m.ID]
	}

	if err := s.store.CreateMachine(r.Context(), m); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.log.Info("machine created", zap.String("machine_id", m.ID), zap.String("role", string(m.Role)))
	writeJSON(w, http.StatusCreated, m)
}

type shipmentRequest struct {
	SupplierName string `json:"supplier_name"`
}

func (s *server) handleShipmentCreate(w http.ResponseWriter, r *http.Request) {
	var req shipmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	sh, err := s.shipments.Create(r.Context(), req.SupplierName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sh)
}

type receiveRequest struct {
	Items []shipments.ReceiveItem `json:"items"`
}

func (s *server) handleShipmentReceive(w http.ResponseWriter, r *http.Request) {
	var req receiveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	sh, err := s.shipments.Receive(r.Context(), chi.URLParam(r, "id"), req.Items)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sh)
}
