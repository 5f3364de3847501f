// SPDX-License-Identifier: BSD-3-Clause

package registry

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/starlingx/hwmond/internal/bmcmodel"
)

// MaxDeleteKillRetries bounds the delete FSM's worker-kill retries
// (spec.md §4.7).
const MaxDeleteKillRetries = 3

// DeleteWaitInterval is how long Wait waits between kill retries.
const DeleteWaitInterval = 2 * time.Second

// DeleteStage is the small delete-FSM's stage.
type DeleteStage string

const (
	DeleteStart DeleteStage = "start"
	DeleteWait  DeleteStage = "wait"
	DeleteDone  DeleteStage = "done"
)

// BMCTuple is the (address, username, type) triple Modify watches for
// changes (spec.md §4.7).
type BMCTuple struct {
	Address  string
	Username string
	Type     string
}

// Entry is one registered host plus its delete-FSM bookkeeping.
type Entry struct {
	Host *bmcmodel.Host

	DeletePending bool
	deleteStage   DeleteStage
	killRetries   int
}

// KillFunc stops a host's active worker/monitor; Registry calls it on
// deprovision and on each delete-FSM Wait tick.
type KillFunc func(hostname string)

// DeprovisionFunc runs after a host's groups/sensors have been driven to
// disabled/offline by a BMC-tuple change (spec.md §3: "on deprovisioning,
// all pending sensor/group/config alarms are cleared with reason
// deprovisioned"). Registry itself has no severity-engine or bus access,
// so CoreState supplies this hook to clear alarms and emit the single
// DEGRADE_CLEAR event spec.md §8 scenario 5 describes.
type DeprovisionFunc func(h *bmcmodel.Host)

// Registry provides add/modify/delete/lookup over hostname, with a
// secondary uuid index (spec.md §4.7).
type Registry struct {
	Kill        KillFunc
	Deprovision DeprovisionFunc

	mu          sync.RWMutex
	byHostname  map[string]*Entry
	byUUID      map[string]string
}

// New constructs an empty Registry.
func New(kill KillFunc) *Registry {
	return &Registry{
		Kill:       kill,
		byHostname: make(map[string]*Entry),
		byUUID:     make(map[string]string),
	}
}

// Add registers a new host. If the hostname already exists, ErrRetry is
// returned so the caller converts the call to Modify.
func (r *Registry) Add(host *bmcmodel.Host) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byHostname[host.Hostname]; exists {
		return ErrRetry
	}
	r.byHostname[host.Hostname] = &Entry{Host: host}
	r.byUUID[host.UUID] = host.Hostname
	return nil
}

// Lookup finds a host entry by hostname.
func (r *Registry) Lookup(hostname string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byHostname[hostname]
	if !ok {
		return nil, ErrHostNotFound
	}
	return e, nil
}

// LookupByUUID finds a host entry by its uuid.
func (r *Registry) LookupByUUID(uuid string) (*Entry, error) {
	r.mu.RLock()
	hostname, ok := r.byUUID[uuid]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrHostNotFound
	}
	return r.Lookup(hostname)
}

// Hosts returns every registered host record. Callers (e.g. the inbound
// sysinv PATCH handlers, which address a sensor/group only by its own
// uuid rather than its owning host) use this to scan for the owner.
func (r *Registry) Hosts() []*bmcmodel.Host {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*bmcmodel.Host, 0, len(r.byHostname))
	for _, e := range r.byHostname {
		out = append(out, e.Host)
	}
	return out
}

// ValidBMCTuple reports whether the address, type, and username are
// legal for reprovisioning (spec.md §4.7: "valid ip, valid bm_type,
// non-empty user that is not the literal None").
func ValidBMCTuple(t BMCTuple) bool {
	if net.ParseIP(t.Address) == nil {
		return false
	}
	if t.Type == "" {
		return false
	}
	if t.Username == "" || t.Username == "None" {
		return false
	}
	return true
}

// Modify updates a host's BMC tuple. Any change to (address, username,
// type) while currently provisioned deprovisions first — disabling all
// groups and canceling sensor monitoring so stale credentials never
// drive a false alarm — then reprovisions if the new tuple validates
// (spec.md §4.7).
func (r *Registry) Modify(hostname string, tuple BMCTuple) error {
	e, err := r.Lookup(hostname)
	if err != nil {
		return err
	}

	h := e.Host
	h.Lock()
	changed := h.BMCAddress != tuple.Address || h.BMCUsername != tuple.Username || h.BMCType != tuple.Type
	provisioned := h.Provisioned
	h.Unlock()

	if changed && provisioned {
		r.deprovision(h)
	}

	if !ValidBMCTuple(tuple) {
		return fmt.Errorf("%w: host %s", ErrInvalidBMCTuple, hostname)
	}

	h.Lock()
	h.BMCAddress = tuple.Address
	h.BMCUsername = tuple.Username
	h.BMCType = tuple.Type
	h.Provisioned = true
	h.Unlock()
	return nil
}

func (r *Registry) deprovision(h *bmcmodel.Host) {
	h.Lock()
	h.Provisioned = false
	h.MonitorEnabled = false
	h.Unlock()

	// Stop the host's monitor runtime before sweeping the tables, so no
	// FSM tick races the disable (spec.md §5: the tables are mutated only
	// under the host's ownership discipline).
	if r.Kill != nil {
		r.Kill(h.Hostname)
	}

	h.Lock()
	for i := range h.Groups {
		h.Groups[i].GroupState = bmcmodel.GroupStateDisabled
	}
	for i := range h.Sensors {
		h.Sensors[i].State = bmcmodel.StateDisabled
		h.Sensors[i].Status = bmcmodel.StatusOffline
	}
	h.Unlock()

	if r.Deprovision != nil {
		r.Deprovision(h)
	}
}

// Delete marks a host for asynchronous removal, advancing the small
// delete FSM (Start -> Wait -> Done) with up to MaxDeleteKillRetries
// worker-kill retries (spec.md §4.7). Call Tick repeatedly (e.g. once
// per core scheduler pass) until it reports done.
func (r *Registry) Delete(hostname string) error {
	e, err := r.Lookup(hostname)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.DeletePending {
		return ErrDeleteInProgress
	}
	e.DeletePending = true
	e.deleteStage = DeleteStart
	return nil
}

// Tick advances one host's delete FSM by one step, returning true once
// the host has been fully removed from the registry.
func (r *Registry) Tick(hostname string) (done bool, err error) {
	e, err := r.Lookup(hostname)
	if err != nil {
		return false, err
	}
	if !e.DeletePending {
		return false, nil
	}

	switch e.deleteStage {
	case DeleteStart:
		if r.Kill != nil {
			r.Kill(hostname)
		}
		e.killRetries++
		e.deleteStage = DeleteWait
		return false, nil

	case DeleteWait:
		if e.killRetries < MaxDeleteKillRetries {
			if r.Kill != nil {
				r.Kill(hostname)
			}
			e.killRetries++
			return false, nil
		}
		e.deleteStage = DeleteDone
		return false, nil

	case DeleteDone:
		r.mu.Lock()
		delete(r.byHostname, hostname)
		delete(r.byUUID, e.Host.UUID)
		r.mu.Unlock()
		return true, nil
	}

	return false, nil
}
