package retrodict

import (
	"context"
	"fmt"
	"net"
	"sort"
)

var pypiDomains = []string{
	"pypi.org",
	"files.pythonhosted.org",
	"pypi.python.org",
}

// ResolvePyPIAllowedIPs resolves current IP addresses for the PyPI domains
// the sandbox's package installer needs. PyPI sits behind Fastly, so
// addresses can change between runs — resolution happens at sandbox start,
// not build time.
func ResolvePyPIAllowedIPs(ctx context.Context) map[string]bool {
	resolver := net.DefaultResolver
	allowed := map[string]bool{}
	for _, domain := range pypiDomains {
		ips, err := resolver.LookupIPAddr(ctx, domain)
		if err != nil {
			continue
		}
		for _, ip := range ips {
			allowed[ip.String()] = true
		}
	}
	return allowed
}

// GeneratePyPIOnlyIPTablesRules builds the iptables command sequence that
// restricts a sandbox's outbound traffic to DNS, loopback, established
// connections, and HTTPS to the given PyPI IPs — everything else is
// dropped. Used when retrodict mode needs to let the model pip-install a
// package without leaking live network access to the rest of the internet.
func GeneratePyPIOnlyIPTablesRules(allowedIPs map[string]bool) []string {
	rules := []string{
		"iptables -A OUTPUT -p udp --dport 53 -j ACCEPT",
		"iptables -A OUTPUT -p tcp --dport 53 -j ACCEPT",
		"iptables -A OUTPUT -o lo -j ACCEPT",
		"iptables -A OUTPUT -m state --state ESTABLISHED,RELATED -j ACCEPT",
	}

	ips := make([]string, 0, len(allowedIPs))
	for ip := range allowedIPs {
		ips = append(ips, ip)
	}
	sort.Strings(ips)
	for _, ip := range ips {
		rules = append(rules, fmt.Sprintf("iptables -A OUTPUT -d %s -p tcp --dport 443 -j ACCEPT", ip))
	}

	rules = append(rules, "iptables -A OUTPUT -j DROP")
	return rules
}
