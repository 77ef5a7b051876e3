package switchport

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/HerbHall/switchconnector/internal/audit"
	"github.com/HerbHall/switchconnector/internal/driver"
	"github.com/HerbHall/switchconnector/internal/ifname"
	"github.com/HerbHall/switchconnector/internal/server"
	"github.com/HerbHall/switchconnector/internal/vault"
	"github.com/HerbHall/switchconnector/internal/vlan"
	"github.com/HerbHall/switchconnector/pkg/models"
)

type hostnameResponse struct {
	Hostname string `json:"hostname"`
}

type resultResponse struct {
	Result string `json:"result"`
}

type tagRequest struct {
	VlanIDs string `json:"vlan_ids"`
	Append  bool   `json:"append"`
}

// UnmarshalJSON accepts vlan_ids as a range string or a single number.
func (t *tagRequest) UnmarshalJSON(b []byte) error {
	var raw struct {
		VlanIDs json.RawMessage `json:"vlan_ids"`
		Append  bool            `json:"append"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	t.Append = raw.Append
	if len(raw.VlanIDs) == 0 {
		return errors.New("vlan_ids is required")
	}
	var n int
	if err := json.Unmarshal(raw.VlanIDs, &n); err == nil {
		t.VlanIDs = strconv.Itoa(n)
		return nil
	}
	return json.Unmarshal(raw.VlanIDs, &t.VlanIDs)
}

// device extracts and validates the {ip} path value.
func device(w http.ResponseWriter, r *http.Request) (string, bool) {
	addr, err := vault.ParseAddress(r.PathValue("ip"))
	if err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return "", false
	}
	return addr, true
}

// interfaceParam extracts the required interface query parameter.
func interfaceParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	iface := r.URL.Query().Get("interface")
	if iface == "" {
		server.BadRequest(w, "query parameter \"interface\" is required", r.URL.Path)
		return "", false
	}
	return iface, true
}

func (p *Plugin) handleHostname(w http.ResponseWriter, r *http.Request) {
	addr, ok := device(w, r)
	if !ok {
		return
	}
	host, err := p.service.Hostname(r.Context(), addr)
	if err != nil {
		p.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hostnameResponse{Hostname: host})
}

func (p *Plugin) handleHardware(w http.ResponseWriter, r *http.Request) {
	addr, ok := device(w, r)
	if !ok {
		return
	}
	info, err := p.service.HardwareInfo(r.Context(), addr)
	if err != nil {
		p.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (p *Plugin) handleVlans(w http.ResponseWriter, r *http.Request) {
	addr, ok := device(w, r)
	if !ok {
		return
	}
	vlans, err := p.service.Vlans(r.Context(), addr)
	if err != nil {
		p.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vlans)
}

func (p *Plugin) handleInterfaceConfig(w http.ResponseWriter, r *http.Request) {
	addr, ok := device(w, r)
	if !ok {
		return
	}
	iface, ok := interfaceParam(w, r)
	if !ok {
		return
	}
	cfg, err := p.service.InterfaceConfig(r.Context(), addr, iface)
	if err != nil {
		p.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (p *Plugin) handleSetMode(w http.ResponseWriter, r *http.Request) {
	addr, ok := device(w, r)
	if !ok {
		return
	}
	iface, ok := interfaceParam(w, r)
	if !ok {
		return
	}
	mode := models.SwitchportMode(r.URL.Query().Get("mode"))
	if err := p.service.SetInterfaceMode(r.Context(), addr, iface, mode); err != nil {
		p.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resultResponse{
		Result: fmt.Sprintf("Interface mode changed successfully to %s on %s on device %s", mode, iface, addr),
	})
}

func (p *Plugin) handleTag(w http.ResponseWriter, r *http.Request) {
	addr, ok := device(w, r)
	if !ok {
		return
	}
	iface, ok := interfaceParam(w, r)
	if !ok {
		return
	}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "application/json" {
			server.Status(w, http.StatusUnsupportedMediaType,
				"Received a request with mime-type different from application/json", r.URL.Path)
			return
		}
	}
	var req tagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.BadRequest(w, "invalid tag request: "+err.Error(), r.URL.Path)
		return
	}
	res, err := p.service.TagInterface(r.Context(), addr, iface, req.VlanIDs, req.Append)
	if err != nil {
		p.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (p *Plugin) handleUntag(w http.ResponseWriter, r *http.Request) {
	addr, ok := device(w, r)
	if !ok {
		return
	}
	iface, ok := interfaceParam(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(r.PathValue("vlan"))
	if err != nil {
		server.BadRequest(w, fmt.Sprintf("invalid vlan id %q", r.PathValue("vlan")), r.URL.Path)
		return
	}
	if err := p.service.UntagInterface(r.Context(), addr, iface, id); err != nil {
		p.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resultResponse{
		Result: fmt.Sprintf("Vlan %d removed from interface %s on device %s", id, iface, addr),
	})
}

func (p *Plugin) handleReachability(w http.ResponseWriter, r *http.Request) {
	addr, ok := device(w, r)
	if !ok {
		return
	}
	if _, known := p.lookup(addr); !known {
		p.writeError(w, r, driver.NotHandled(addr))
		return
	}
	res, err := p.checker.Check(r.Context(), addr)
	if err != nil {
		p.logger.Error("reachability check failed",
			zap.String("device", addr),
			zap.Error(err),
		)
		server.InternalError(w, err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (p *Plugin) handleAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := audit.Filter{}
	if dev := q.Get("device"); dev != "" {
		addr, err := vault.ParseAddress(dev)
		if err != nil {
			server.BadRequest(w, err.Error(), r.URL.Path)
			return
		}
		filter.Device = addr
	}
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			server.BadRequest(w, fmt.Sprintf("invalid limit %q", l), r.URL.Path)
			return
		}
		filter.Limit = n
	}
	entries, err := p.trail.List(r.Context(), filter)
	if err != nil {
		p.logger.Error("list audit entries", zap.Error(err))
		server.InternalError(w, "failed to list audit entries", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// writeError maps an operation error to a problem response.
func (p *Plugin) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if rej, ok := driver.AsRejection(err); ok {
		server.Status(w, rej.Status, rej.Detail, r.URL.Path)
		return
	}
	switch {
	case errors.Is(err, driver.ErrDeviceNotHandled):
		server.NotFound(w, err.Error(), r.URL.Path)
	case errors.Is(err, ErrTransportTimeout):
		server.GatewayTimeout(w, err.Error(), r.URL.Path)
	case invalidInput(err):
		server.BadRequest(w, err.Error(), r.URL.Path)
	default:
		p.logger.Error("query device failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		server.InternalError(w, err.Error(), r.URL.Path)
	}
}

// invalidInput reports a caller error. A device answer that fails to parse
// wraps the same sentinels but is a transport failure.
func invalidInput(err error) bool {
	if _, transport := driver.KindOf(err); transport {
		return false
	}
	return errors.Is(err, ErrInvalidMode) ||
		errors.Is(err, vlan.ErrInvalidRangeSyntax) ||
		errors.Is(err, vlan.ErrOutOfRange) ||
		errors.Is(err, ifname.ErrMalformedInterfaceName) ||
		errors.Is(err, ifname.ErrUnknownInterfaceType)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
