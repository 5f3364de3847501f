// SPDX-License-Identifier: BSD-3-Clause

package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// LoadINI parses a flat ini file (section headers are accepted but
// ignored — hwmon.conf keeps everything under one [hwmond] section) and
// returns the Options needed to build a Config via New. Unrecognized
// keys are ignored rather than rejected, matching the original agent's
// tolerance for forward-compatible config files.
func LoadINI(r io.Reader) ([]Option, error) {
	scanner := bufio.NewScanner(r)
	var opts []Option

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("%w: line %d: %q", ErrMalformedLine, lineNo, line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		opt, err := parseOption(key, value)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedLine, lineNo, err)
		}
		if opt != nil {
			opts = append(opts, opt)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return opts, nil
}

func parseOption(key, value string) (Option, error) {
	switch key {
	case "audit_period":
		seconds, err := strconv.Atoi(value)
		if err != nil {
			return nil, err
		}
		return WithAuditPeriod(time.Duration(seconds) * time.Second), nil
	case "token_refresh_rate":
		seconds, err := strconv.Atoi(value)
		if err != nil {
			return nil, err
		}
		return WithTokenRefresh(time.Duration(seconds) * time.Second), nil
	case "event_port":
		port, err := strconv.Atoi(value)
		if err != nil {
			return nil, err
		}
		return WithEventPort(port), nil
	case "cmd_port":
		port, err := strconv.Atoi(value)
		if err != nil {
			return nil, err
		}
		return WithCmdPort(port), nil
	case "inv_event_port":
		port, err := strconv.Atoi(value)
		if err != nil {
			return nil, err
		}
		return WithInvEventPort(port), nil
	case "keystone_port":
		port, err := strconv.Atoi(value)
		if err != nil {
			return nil, err
		}
		return WithKeystonePort(port), nil
	case "auth_host":
		return WithAuthHost(value), nil
	default:
		return nil, nil
	}
}
