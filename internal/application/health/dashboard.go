package health

import (
	"encoding/json"
	"fmt"
	"html"
	"sort"
	"strings"
)

// DependencyNames returns the dependency keys in display order: database and redis first,
// external targets alphabetically after.
func DependencyNames(deps map[string]DepStatus) []string {
	names := make([]string, 0, len(deps))
	for name := range deps {
		if name != "database" && name != "redis" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return append([]string{"database", "redis"}, names...)
}

// RenderDashboardHTML returns the HTML status page served at GET /.
func RenderDashboardHTML(service string, health CollectResult) string {
	b, _ := json.Marshal(health)
	jsonStr := string(b)
	// embedded in a JS template literal
	jsonStr = strings.ReplaceAll(jsonStr, "\\", "\\\\")
	jsonStr = strings.ReplaceAll(jsonStr, "`", "\\`")
	jsonStr = strings.ReplaceAll(jsonStr, "$", "\\$")

	lastReqMethod, lastReqPath, lastReqIP := "-", "-", "-"
	if m, ok := health.Traffic.LastRequest.(map[string]interface{}); ok {
		if v, ok := m["method"].(string); ok {
			lastReqMethod = v
		}
		if v, ok := m["path"].(string); ok {
			lastReqPath = v
		}
		if v, ok := m["ip"].(string); ok {
			lastReqIP = v
		}
	}

	var deps strings.Builder
	for _, name := range DependencyNames(health.Dependencies) {
		d, ok := health.Dependencies[name]
		if !ok {
			continue
		}
		class := "err"
		if d.Status == "connected" || d.Status == "reachable" {
			class = "ok"
		} else if d.Status == "unconfigured" {
			class = "off"
		}
		fmt.Fprintf(&deps, `<div class="row"><span>%s</span><span id="pill-%s" class="pill %s"><span class="dot"></span><span id="ping-%s">%s</span></span></div>`,
			html.EscapeString(name), html.EscapeString(name), class, html.EscapeString(name), html.EscapeString(d.Status))
	}

	headline := "All Systems Operational"
	if health.Status != "ok" {
		headline = "System Issues Detected"
	}

	return `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>` + html.EscapeString(service) + ` · API Status</title>
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <style>
    :root { --ink: #1E1B4B; --accent: #E11D48; --bg: #F3F4F6; --muted: #6B7280; --ok: #047857; }
    * { box-sizing: border-box; }
    body { background: var(--bg); color: var(--ink); font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; margin: 0; padding: 48px 20px; }
    .container { max-width: 1000px; margin: 0 auto; }
    header { display: flex; justify-content: space-between; align-items: baseline; margin-bottom: 24px; }
    .brand { font-size: 20px; font-weight: 800; letter-spacing: -0.5px; }
    .time { font-size: 13px; color: var(--muted); font-weight: 700; }
    h1 { font-size: clamp(28px, 4vw, 48px); font-weight: 900; letter-spacing: -2px; margin: 0 0 8px 0; }
    h1.issue { color: var(--accent); }
    .subtext { color: var(--muted); font-weight: 600; margin: 0 0 28px 0; }
    .card { background: #fff; border-radius: 20px; box-shadow: 0 20px 60px -20px rgba(30, 27, 75, 0.15); overflow: hidden; }
    .grid { display: grid; grid-template-columns: repeat(3, 1fr); }
    .col { padding: 36px; border-right: 1px solid #F1F5F9; }
    .col:last-child { border-right: none; }
    .label { text-transform: uppercase; font-size: 11px; font-weight: 900; letter-spacing: 2px; color: #9CA3AF; margin-bottom: 20px; }
    .big { font-size: 40px; font-weight: 900; letter-spacing: -1.5px; margin-bottom: 10px; }
    .row { display: flex; justify-content: space-between; align-items: center; padding: 8px 0; border-bottom: 1px solid #F9FAFB; font-size: 14px; font-weight: 700; }
    .row:last-child { border-bottom: none; }
    .pill { padding: 4px 10px; border-radius: 8px; font-size: 11px; font-weight: 900; display: flex; align-items: center; gap: 6px; }
    .ok { background: rgba(4, 120, 87, 0.08); color: var(--ok); }
    .err { background: rgba(225, 29, 72, 0.08); color: var(--accent); }
    .off { background: #F3F4F6; color: var(--muted); }
    .dot { width: 7px; height: 7px; border-radius: 50%; background: currentColor; }
    .footer { background: #FAFAFA; padding: 16px 36px; display: flex; justify-content: space-between; font-family: monospace; font-size: 13px; border-top: 1px solid #F1F5F9; }
    .actions { margin-top: 24px; display: flex; gap: 12px; align-items: center; color: var(--muted); font-weight: 700; font-size: 13px; }
    button { background: var(--ink); color: #fff; border: none; padding: 8px 18px; border-radius: 8px; cursor: pointer; font-weight: 800; font-size: 12px; }
    #error-modal { display: none; position: fixed; inset: 0; background: rgba(30, 27, 75, 0.4); align-items: center; justify-content: center; padding: 20px; }
    .modal { background: #fff; width: 100%; max-width: 700px; border-radius: 20px; padding: 32px; max-height: 80vh; overflow-y: auto; }
    .error-item { border-bottom: 1px solid #F1F5F9; padding: 12px 0; font-size: 13px; font-family: monospace; }
    @media (max-width: 900px) { .grid { grid-template-columns: 1fr; } .col { border-right: none; border-bottom: 1px solid #F1F5F9; } .footer { flex-direction: column; gap: 8px; } }
  </style>
</head>
<body>
  <div id="error-modal" onclick="closeErrors()">
    <div class="modal" onclick="event.stopPropagation()">
      <h2 style="margin-top:0">Internal Server Errors (Last 50)</h2>
      <div id="error-list">Loading...</div>
    </div>
  </div>
  <div class="container">
    <header>
      <div class="brand">` + html.EscapeString(service) + `</div>
      <div class="time" id="time-display"></div>
    </header>
    <h1 id="headline">` + headline + `</h1>
    <p class="subtext">Request traffic, runtime and dependency reachability.</p>
    <div class="card">
      <div class="grid">
        <div class="col">
          <div class="label">Traffic</div>
          <div class="big" id="total-req">` + fmt.Sprint(health.Traffic.TotalRequests) + `</div>
          <div class="row"><span>Successful</span><span id="success-count">` + fmt.Sprint(health.Traffic.SuccessCount) + `</span></div>
          <div class="row"><span>Failed</span><span id="failed-count">` + fmt.Sprint(health.Traffic.FailedCount) + `</span></div>
          <div class="row"><span>Success Rate</span><span id="success-rate">` + health.Traffic.SuccessRate + `%</span></div>
          <div class="row"><span>Avg Latency</span><span id="avg-time">` + fmt.Sprint(health.Traffic.AvgResponseTime) + `ms</span></div>
        </div>
        <div class="col">
          <div class="label">Runtime</div>
          <div class="big" id="uptime">--</div>
          <div class="row"><span>Heap In Use</span><span id="mem-heap">` + fmt.Sprint(health.Runtime.Memory.HeapUsed) + ` MB</span></div>
          <div class="row"><span>Allocated</span><span id="mem-alloc">` + fmt.Sprint(health.Runtime.Memory.Alloc) + ` MB</span></div>
          <div class="row"><span>Goroutines</span><span id="goroutines">` + fmt.Sprint(health.Runtime.Goroutines) + `</span></div>
          <div class="row"><span>Platform</span><span style="font-size:11px">` + html.EscapeString(health.Runtime.Platform) + `</span></div>
        </div>
        <div class="col">
          <div class="label">Dependencies</div>
          ` + deps.String() + `
        </div>
      </div>
      <div class="footer">
        <div>LAST INBOUND <b id="req-method">` + html.EscapeString(lastReqMethod) + `</b></div>
        <div id="req-path">` + html.EscapeString(lastReqPath) + `</div>
        <div id="req-ip">` + html.EscapeString(lastReqIP) + `</div>
      </div>
    </div>
    <div class="actions">
      <button onclick="showErrors()">View Error Log</button>
      <button onclick="tick()">Refresh</button>
    </div>
  </div>
  <script>
    const fmt = (s) => { const d = Math.floor(s / 86400); const h = Math.floor((s % 86400) / 3600); const m = Math.floor((s % 3600) / 60); return d > 0 ? d + 'd ' + h + 'h ' + m + 'm' : h + 'h ' + m + 'm ' + Math.floor(s % 60) + 's'; };
    const updateUI = (d) => {
      document.getElementById('time-display').innerText = new Date().toLocaleTimeString();
      document.getElementById('total-req').innerText = d.traffic.totalRequests;
      document.getElementById('success-count').innerText = d.traffic.successCount;
      document.getElementById('failed-count').innerText = d.traffic.failedCount;
      document.getElementById('success-rate').innerText = d.traffic.successRate + '%';
      document.getElementById('avg-time').innerText = d.traffic.avgResponseTime + 'ms';
      document.getElementById('uptime').innerText = fmt(d.runtime.uptimeSeconds);
      document.getElementById('mem-heap').innerText = d.runtime.memory.heapUsed + ' MB';
      document.getElementById('goroutines').innerText = d.runtime.goroutines;
      if (d.traffic.lastRequest) { document.getElementById('req-method').innerText = d.traffic.lastRequest.method; document.getElementById('req-path').innerText = d.traffic.lastRequest.path; document.getElementById('req-ip').innerText = d.traffic.lastRequest.ip; }
      Object.entries(d.dependencies).forEach(([name, dep]) => {
        const pill = document.getElementById('pill-' + name); if (!pill) return;
        const ok = dep.status === 'connected' || dep.status === 'reachable';
        pill.className = 'pill ' + (ok ? 'ok' : dep.status === 'unconfigured' ? 'off' : 'err');
        document.getElementById('ping-' + name).innerText = dep.pingMs != null ? dep.pingMs + ' ms' : dep.status;
      });
      const hl = document.getElementById('headline');
      hl.innerText = d.status === 'ok' ? 'All Systems Operational' : 'System Issues Detected';
      hl.className = d.status === 'ok' ? '' : 'issue';
    };
    async function tick() { try { const r = await fetch('/health/json'); updateUI(await r.json()); } catch (e) {} }
    async function showErrors() { const list = document.getElementById('error-list'); document.getElementById('error-modal').style.display = 'flex'; list.innerText = 'Fetching logs...'; try { const r = await fetch('/health/errors'); const errors = await r.json(); if (errors.length === 0) { list.innerText = 'No internal errors recorded.'; return; } list.innerHTML = ''; errors.forEach(e => { const div = document.createElement('div'); div.className = 'error-item'; div.innerText = new Date(e.time).toLocaleString() + '  ' + (e.status || '') + ' ' + (e.method || '') + ' ' + (e.path || '') + '  ' + (e.trace_id || ''); list.appendChild(div); }); } catch (e) { list.innerText = 'Error loading logs.'; } }
    function closeErrors() { document.getElementById('error-modal').style.display = 'none'; }
    updateUI(JSON.parse(` + "`" + jsonStr + "`" + `));
    setInterval(tick, 30000);
  </script>
</body>
</html>`
}
