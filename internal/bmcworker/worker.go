// SPDX-License-Identifier: BSD-3-Clause

package bmcworker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Command discriminates the two operations a Worker can run (spec.md §4.2).
type Command int

const (
	CommandPowerStatus Command = iota
	CommandSensorRead
)

// envelopeHeader is the fixed JSON field ipmitool's wrapper script emits
// the payload under; it is a wire contract (spec.md §6), not a detail of
// this package's own choosing.
const envelopeHeader = "hwmon_sensor_data"

// powerOnSubstring is the fixed stdout marker for an on power state.
const powerOnSubstring = "Chassis Power is on"

// Sample is one sensor reading inside a SensorRead envelope body.
type Sample struct {
	Name   string  `json:"name"`
	Status string  `json:"status"`
	Value  float64 `json:"value"`
	Unit   string  `json:"unit"`
}

// envelope is the JSON wrapper ipmitool's sensor-read wrapper emits.
type envelope struct {
	Samples []Sample `json:"hwmon_sensor_data"`
}

// Result is what a completed Worker produces: status, raw stdout, and for
// SensorRead the parsed sample list. FirmwareVersion is filled in on every
// successful SensorRead whose MC-info scratch file carries the revision
// line, scraped from that file rather than a second ipmitool invocation
// (spec.md §6, §9 supplemented feature); the monitor records it once per
// host.
type Result struct {
	Command         Command
	PowerOn         bool
	Samples         []Sample
	RawStdout       string
	FirmwareVersion string
}

// Credentials is a host's BMC access tuple. Password is never logged; any
// error returned by Run has the password-file path redacted.
type Credentials struct {
	Address  string
	Username string
	Password string
}

// Client is the BmcClient trait spec.md §9 calls for: a narrow interface
// around the ipmitool child process so tests can inject a fake instead of
// shelling out.
type Client interface {
	Run(ctx context.Context, cmd Command, creds Credentials, scratchDir string) (Result, error)
}

// IPMIToolClient shells out to the real ipmitool binary.
type IPMIToolClient struct {
	// BinaryPath overrides the ipmitool executable; defaults to "ipmitool"
	// resolved from PATH.
	BinaryPath string
}

var _ Client = (*IPMIToolClient)(nil)

// Run launches ipmitool for the given command and blocks until it exits,
// is killed by ctx, or produces output. At most one Worker runs per host;
// callers are expected to enforce that (bmcworker itself is stateless).
func (c *IPMIToolClient) Run(ctx context.Context, cmd Command, creds Credentials, scratchDir string) (Result, error) {
	passFile, err := writePasswordFile(scratchDir, creds.Password)
	if err != nil {
		return Result{}, fmt.Errorf("bmcworker: write password file: %w", err)
	}
	defer os.Remove(passFile)

	args := []string{"-I", "lanplus", "-H", creds.Address, "-U", creds.Username, "-f", passFile}
	switch cmd {
	case CommandPowerStatus:
		args = append(args, "chassis", "power", "status")
	case CommandSensorRead:
		args = append(args, "sdr", "elist")
	}

	bin := c.BinaryPath
	if bin == "" {
		bin = "ipmitool"
	}

	var stdout, stderr bytes.Buffer
	execCmd := exec.CommandContext(ctx, bin, args...)
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr

	runErr := execCmd.Run()
	if ctx.Err() != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrKilled, ctx.Err())
	}
	if runErr != nil {
		return Result{}, fmt.Errorf("%w: %s", ErrWorkerFailed, redact(stderr.String(), passFile))
	}

	res := Result{Command: cmd, RawStdout: stdout.String()}

	switch cmd {
	case CommandPowerStatus:
		res.PowerOn = strings.Contains(res.RawStdout, powerOnSubstring)
	case CommandSensorRead:
		var env envelope
		if err := json.Unmarshal(stdout.Bytes(), &env); err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrMissingEnvelopeHeader, err)
		}
		res.Samples = env.Samples
		if fw, err := readFirmwareVersion(scratchDir); err == nil {
			res.FirmwareVersion = fw
		}
	}

	return res, nil
}

func writePasswordFile(dir, password string) (string, error) {
	f, err := os.CreateTemp(dir, "hwmon-bmcpass-*")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.WriteString(password); err != nil {
		return "", err
	}
	return f.Name(), nil
}

// redact strips a credential file path from an error string before it is
// allowed into a user-visible log (spec.md §6: "must redact the -f <path>
// portion from any user-visible error log").
func redact(s, path string) string {
	return strings.ReplaceAll(s, path, "<redacted>")
}

// readFirmwareVersion scrapes the "Firmware Revision : <version>" line
// from the MC-info scratch file ipmitool's mc info wrapper leaves behind.
// Supplements the original implementation's behavior of
// capturing firmware version as a side effect of the sensor-read worker
// rather than a dedicated shell-out (spec.md §6, §9).
func readFirmwareVersion(scratchDir string) (string, error) {
	path := filepath.Join(scratchDir, "mcinfo.out")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(data), "\n") {
		const label = "Firmware Revision"
		if idx := strings.Index(line, label); idx >= 0 {
			rest := line[idx+len(label):]
			rest = strings.TrimLeft(rest, " :\t")
			return strings.TrimSpace(rest), nil
		}
	}
	return "", fmt.Errorf("bmcworker: firmware revision not found in %s", path)
}
