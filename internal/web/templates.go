package web

// statusTemplate is the embedded status page. The JSON APIs under /api are
// the stable surface; this page is a convenience view over them.
const statusTemplate = `<!DOCTYPE html>
<html>
<head>
<title>{{.PageTitle}}</title>
<style>
body { font-family: monospace; margin: 2em; }
table { border-collapse: collapse; margin-bottom: 2em; }
th, td { border: 1px solid #999; padding: 0.3em 0.8em; text-align: left; }
th { background: #eee; }
.lost { color: #a00; }
.new { color: #060; }
</style>
</head>
<body>
<h1>{{.PageTitle}}</h1>
<p>Generated {{.Now}}</p>

<h2>Present devices ({{len .Devices}})</h2>
<table>
<tr><th>MAC</th><th>Name</th><th>Type</th><th>RSSI (dBm)</th><th>Vendor</th><th>First seen</th><th>Last seen</th></tr>
{{range .Devices}}
<tr>
<td>{{.MAC}}</td>
<td>{{.Name}}</td>
<td>{{.AddrType}}</td>
<td>{{.RSSI}}</td>
<td>{{if .Info}}{{.Info.Company}}{{end}}</td>
<td>{{.FirstSeen.Format "2006-01-02 15:04:05"}}</td>
<td>{{.LastSeen.Format "2006-01-02 15:04:05"}}</td>
</tr>
{{end}}
</table>

<h2>Recent events</h2>
<table>
<tr><th>Time</th><th>Event</th><th>MAC</th><th>Name</th><th>RSSI (dBm)</th></tr>
{{range .Events}}
<tr>
<td>{{.Timestamp.Format "2006-01-02 15:04:05"}}</td>
<td class="{{if eq .Kind "LOST"}}lost{{else}}new{{end}}">{{.Kind}}</td>
<td>{{.MAC}}</td>
<td>{{.Name}}</td>
<td>{{.RSSI}}</td>
</tr>
{{end}}
</table>
</body>
</html>
`
