package device

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/netpass/backend/internal/domain/access"
	"github.com/netpass/backend/internal/infrastructure/config"
)

const (
	ipBindingPath   = "/rest/ip/hotspot/ip-binding"
	schedulerPath   = "/rest/system/scheduler"
	bindingBypassed = "bypassed"
)

// RouterOSAdapter implements the access.NetworkAdmissionDevice port against
// the RouterOS REST API. Admissions are hotspot ip-bindings of type bypassed;
// the binding's own timeout field enforces expiry on the device even when
// this process is down.
type RouterOSAdapter struct {
	baseURL        string
	username       string
	password       string
	schedulerOwner string
	useScheduler   bool
	httpClient     *http.Client
}

// NewRouterOSAdapter creates a new RouterOS adapter
func NewRouterOSAdapter(cfg config.DeviceConfig) *RouterOSAdapter {
	host := cfg.Host
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	return &RouterOSAdapter{
		baseURL:        strings.TrimRight(host, "/"),
		username:       cfg.Username,
		password:       cfg.Password,
		schedulerOwner: cfg.SchedulerOwner,
		useScheduler:   cfg.UseScheduler,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// rosBinding is the RouterOS ip-binding resource
type rosBinding struct {
	ID         string `json:".id,omitempty"`
	MacAddress string `json:"mac-address,omitempty"`
	Address    string `json:"address,omitempty"`
	Type       string `json:"type,omitempty"`
	Timeout    string `json:"timeout,omitempty"`
}

// rosSchedulerEntry is the RouterOS scheduler resource
type rosSchedulerEntry struct {
	ID       string `json:".id,omitempty"`
	Name     string `json:"name,omitempty"`
	Interval string `json:"interval,omitempty"`
	OnEvent  string `json:"on-event,omitempty"`
	Comment  string `json:"comment,omitempty"`
}

// Admit binds the identifier as bypassed for the given duration.
// An existing binding for the identifier is updated in place, so repeated
// admissions replace the expiry instead of stacking duplicates.
func (a *RouterOSAdapter) Admit(ctx context.Context, identifier string, duration time.Duration) error {
	existing, err := a.findBinding(ctx, identifier)
	if err != nil {
		return err
	}

	binding := rosBinding{
		Type:    bindingBypassed,
		Timeout: formatTimeout(duration),
	}
	if isMAC(identifier) {
		binding.MacAddress = identifier
	} else {
		binding.Address = identifier
	}

	if existing != nil {
		return a.send(ctx, http.MethodPatch, ipBindingPath+"/"+url.PathEscape(existing.ID), binding, nil)
	}
	return a.send(ctx, http.MethodPut, ipBindingPath, binding, nil)
}

// Revoke removes the binding for the identifier. A missing binding is success.
func (a *RouterOSAdapter) Revoke(ctx context.Context, identifier string) error {
	existing, err := a.findBinding(ctx, identifier)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	return a.send(ctx, http.MethodDelete, ipBindingPath+"/"+url.PathEscape(existing.ID), nil, nil)
}

// ScheduleRevocation installs a one-shot device-side scheduler entry that
// removes the binding after the delay. The entry removes itself once it fired.
// An existing entry for the identifier is updated in place; RouterOS rejects
// a second entry with the same name.
func (a *RouterOSAdapter) ScheduleRevocation(ctx context.Context, identifier string, after time.Duration) error {
	if !a.useScheduler {
		return access.ErrSchedulingUnsupported
	}

	name := schedulerEntryName(a.schedulerOwner, identifier)
	existing, err := a.findSchedulerEntry(ctx, name)
	if err != nil {
		return err
	}

	selector := "mac-address"
	if !isMAC(identifier) {
		selector = "address"
	}
	script := fmt.Sprintf(
		`/ip hotspot ip-binding remove [find where %s="%s"]; /system scheduler remove [find where name="%s"]`,
		selector, identifier, name,
	)

	entry := rosSchedulerEntry{
		Name:     name,
		Interval: formatTimeout(after),
		OnEvent:  script,
		Comment:  a.schedulerOwner,
	}
	if existing != nil {
		return a.send(ctx, http.MethodPatch, schedulerPath+"/"+url.PathEscape(existing.ID), entry, nil)
	}
	return a.send(ctx, http.MethodPut, schedulerPath, entry, nil)
}

// SupportsScheduling reports whether device-side delayed revocation is enabled
func (a *RouterOSAdapter) SupportsScheduling() bool {
	return a.useScheduler
}

// findBinding looks up the existing binding for an identifier, nil when absent
func (a *RouterOSAdapter) findBinding(ctx context.Context, identifier string) (*rosBinding, error) {
	q := url.Values{}
	if isMAC(identifier) {
		q.Set("mac-address", identifier)
	} else {
		q.Set("address", identifier)
	}

	var bindings []rosBinding
	if err := a.send(ctx, http.MethodGet, ipBindingPath+"?"+q.Encode(), nil, &bindings); err != nil {
		return nil, err
	}
	if len(bindings) == 0 {
		return nil, nil
	}
	return &bindings[0], nil
}

// findSchedulerEntry looks up the scheduler entry by name, nil when absent
func (a *RouterOSAdapter) findSchedulerEntry(ctx context.Context, name string) (*rosSchedulerEntry, error) {
	q := url.Values{}
	q.Set("name", name)

	var entries []rosSchedulerEntry
	if err := a.send(ctx, http.MethodGet, schedulerPath+"?"+q.Encode(), nil, &entries); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// send executes one REST call against the device
func (a *RouterOSAdapter) send(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("routeros: marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("routeros: create request: %w", err)
	}
	req.SetBasicAuth(a.username, a.password)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", access.ErrDeviceUnreachable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("routeros: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d: %s", access.ErrDeviceRejected, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("routeros: parse response: %w", err)
		}
	}
	return nil
}

// isMAC reports whether the identifier looks like a MAC address rather than
// an IP address
func isMAC(identifier string) bool {
	return strings.Count(identifier, ":") == 5 || strings.Count(identifier, "-") == 5
}

// formatTimeout renders a duration in the whole-second form RouterOS accepts
func formatTimeout(d time.Duration) string {
	seconds := int64(d / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return strconv.FormatInt(seconds, 10) + "s"
}

// schedulerEntryName derives a stable scheduler entry name per identifier so
// rescheduling replaces rather than accumulates entries
func schedulerEntryName(owner, identifier string) string {
	sanitized := strings.NewReplacer(":", "", ".", "-").Replace(identifier)
	return owner + "-revoke-" + sanitized
}

// Ensure RouterOSAdapter implements the device port
var _ access.NetworkAdmissionDevice = (*RouterOSAdapter)(nil)
