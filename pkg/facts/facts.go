// Package facts gathers information about the remote edge node: host
// identity, OS, and the hadoop client tooling hiveline depends on.
package facts

import (
	"context"
	"strings"

	"github.com/hiveline/hiveline/internal/connector"
)

// Gather collects facts from the edge node. Individual probes that fail
// are simply omitted; an edge node without hadoop tooling still yields
// its host facts.
func Gather(ctx context.Context, conn connector.Connector) (map[string]string, error) {
	if err := conn.Connect(ctx); err != nil {
		return nil, err
	}

	facts := make(map[string]string)

	probe(ctx, conn, facts, "hostname", "hostname")
	probe(ctx, conn, facts, "user", "whoami")
	probe(ctx, conn, facts, "os", "uname -s")
	probe(ctx, conn, facts, "kernel", "uname -r")
	probe(ctx, conn, facts, "arch", "uname -m")
	probe(ctx, conn, facts, "uptime", "uptime -p")

	if result, err := conn.Execute(ctx, "cat /etc/os-release 2>/dev/null"); err == nil && result.ExitCode == 0 {
		if name, ok := parseOSRelease(result.Stdout)["PRETTY_NAME"]; ok {
			facts["os_name"] = name
		}
	}

	// Hadoop client tooling, if present.
	probeFirstLine(ctx, conn, facts, "hadoop_version", "hadoop version 2>/dev/null")
	probeFirstLine(ctx, conn, facts, "java_version", "java -version 2>&1")
	probe(ctx, conn, facts, "beeline_path", "command -v beeline 2>/dev/null")

	return facts, nil
}

// DiskUsage returns the free space line of df -h for the given path.
func DiskUsage(ctx context.Context, conn connector.Connector, path string) (string, error) {
	result, err := conn.Execute(ctx, "df -h "+path+" | tail -1")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Stdout), nil
}

// probe runs cmd and stores its trimmed output under key, skipping
// failures and empty output.
func probe(ctx context.Context, conn connector.Connector, facts map[string]string, key, cmd string) {
	result, err := conn.Execute(ctx, cmd)
	if err != nil || result.ExitCode != 0 {
		return
	}
	if value := strings.TrimSpace(result.Stdout); value != "" {
		facts[key] = value
	}
}

// probeFirstLine is probe keeping only the first output line, for
// version banners.
func probeFirstLine(ctx context.Context, conn connector.Connector, facts map[string]string, key, cmd string) {
	result, err := conn.Execute(ctx, cmd)
	if err != nil || result.ExitCode != 0 {
		return
	}
	line, _, _ := strings.Cut(strings.TrimSpace(result.Stdout), "\n")
	if line != "" {
		facts[key] = line
	}
}

// parseOSRelease parses /etc/os-release format.
func parseOSRelease(content string) map[string]string {
	result := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if idx := strings.Index(line, "="); idx > 0 {
			key := line[:idx]
			value := strings.Trim(line[idx+1:], "\"'")
			result[key] = value
		}
	}
	return result
}
