package dashboard

import (
	"fmt"
	"html/template"
	"slices"

	"github.com/gyeh/denial-dash/internal/asset"
	"github.com/gyeh/denial-dash/internal/chart"
	"github.com/gyeh/denial-dash/internal/filter"
	"github.com/gyeh/denial-dash/internal/kpi"
	"github.com/gyeh/denial-dash/internal/ledger"
)

type pageData struct {
	Title    string
	Logo     asset.Image
	Choices  filter.Choices
	Criteria filter.Criteria
	Summary  kpi.Summary
	Insights []string
	Preview  filter.View
	Rows     int
	Charts   []chart.Spec
	Query    template.URL // encoded filters, appended to chart and export links
}

func (p pageData) Heading() string { return FallbackHeading }

func (p pageData) LogoLoaded() bool { return p.Logo.Status == asset.Loaded }

// LogoMissing reports an absent logo file, shown as a warning.
func (p pageData) LogoMissing() bool { return p.Logo.Status == asset.MissingFile }

// LogoBroken reports an undecodable logo, shown as an inline error.
func (p pageData) LogoBroken() bool { return p.Logo.Status == asset.DecodeError }

func (p pageData) TypeSelected(t string) bool {
	return slices.Contains(p.Criteria.DenialTypes, t)
}

var funcs = template.FuncMap{
	"dollars": kpi.Dollars,
	"signed":  kpi.SignedPct,
	"percent": func(v float64) string { return fmt.Sprintf("%.1f%%", v*100) },
	"avg":     func(v float64) string { return kpi.Dollars(int(v)) },
	"date":    func(r ledger.DenialRecord) string { return r.Date.Format("2006-01-02") },
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Elica Dental Revenue Cycle Dashboard</title>
<style>
  body { background-color: #0b1220; color: #f8fafc; font-family: sans-serif; margin: 0; display: flex; }
  aside { width: 240px; padding: 16px; background: #111827; min-height: 100vh; }
  main { flex: 1; padding: 16px 24px; }
  .kpis { display: flex; gap: 12px; align-items: center; }
  .kpi { background: #111827; border-radius: 8px; padding: 10px 14px; }
  .small { color: #9ca3af; font-size: 12px; }
  .big { font-size: 20px; font-weight: 700; }
  .warning { color: #facc15; }
  .error { color: #f87171; }
  .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(320px, 1fr)); gap: 16px; }
  table { border-collapse: collapse; font-size: 12px; }
  td, th { padding: 2px 8px; border-bottom: 1px solid #1f2937; text-align: left; }
  img.chart { width: 100%; background: #fff; }
  a { color: #60a5fa; }
</style>
</head>
<body>
<aside>
  <h3>Filters</h3>
  <form method="get" action="/">
    <label class="small">Payer</label><br>
    <select name="payer">
      {{range .Choices.Payers}}<option{{if eq . $.Criteria.Payer}} selected{{end}}>{{.}}</option>{{end}}
    </select><br><br>
    <label class="small">Date Range</label><br>
    <select name="range">
      {{range .Choices.DateRanges}}<option{{if eq . $.Criteria.DateRange}} selected{{end}}>{{.}}</option>{{end}}
    </select><br><br>
    <label class="small">Denial Types (multi)</label><br>
    <input type="hidden" name="type" value="">
    {{range .Choices.DenialTypes}}<label><input type="checkbox" name="type" value="{{.}}"{{if $.TypeSelected .}} checked{{end}}> {{.}}</label><br>{{end}}
    <br><button type="submit">Apply</button>
  </form>
</aside>
<main>
  <div class="kpis">
    <div>
      {{if .LogoLoaded}}<img src="/logo" width="180" alt="logo">
      {{else}}<h2>{{.Heading}}</h2>
        {{if .LogoMissing}}<div class="small warning">Logo not found: {{.Logo.Path}}</div>{{end}}
        {{if .LogoBroken}}<div class="small error">Logo failed to load: {{.Logo.Err}}</div>{{end}}
      {{end}}
    </div>
    <div class="kpi"><div class="small">Total Denial Amount</div><div class="big">{{dollars .Summary.TotalAmount}}</div></div>
    <div class="kpi"><div class="small">Last Month End Denials</div><div class="big">{{dollars .Summary.LastMonthAmount}}</div></div>
    <div class="kpi"><div class="small">Vs Prior Month</div><div class="big">{{signed .Summary.VsPriorPct}}</div></div>
    <div class="kpi"><div class="small">6-Month Rolling Avg</div><div class="big">{{avg .Summary.RollingAvg}}</div></div>
    <div class="kpi"><div class="small">Clean Claim Rate</div><div class="big">{{percent .Summary.CleanClaimRate}}</div></div>
  </div>
  <hr>
  <div class="grid">
    {{range .Charts}}
    <section>
      <h3>{{.Title}}</h3>
      <img class="chart" src="/charts/{{.ID}}.png?{{$.Query}}" alt="{{.Title}}">
    </section>
    {{end}}
  </div>
  <hr>
  <div class="grid">
    <section><h4>Table: Denial Type Detail</h4>
      <table><tr><th>Denial Type</th><th>Amount</th></tr>
      {{range .Summary.AmountByType}}<tr><td>{{.Label}}</td><td>{{dollars .Value}}</td></tr>{{end}}</table></section>
    <section><h4>Table: Trend Detail</h4>
      <table><tr><th>Month</th><th>Amount</th></tr>
      {{range .Summary.AmountByMonth}}<tr><td>{{.Label}}</td><td>{{dollars .Value}}</td></tr>{{end}}</table></section>
    <section><h4>Table: Payer Detail</h4>
      <table><tr><th>Payer</th><th>Amount</th></tr>
      {{range .Summary.AmountByPayer}}<tr><td>{{.Label}}</td><td>{{dollars .Value}}</td></tr>{{end}}</table></section>
    <section><h4>Table: Overturn Detail</h4>
      <table><tr><th>Denial Type</th><th>Overturned Count</th></tr>
      {{range .Summary.OverturnedByType}}<tr><td>{{.Label}}</td><td>{{.Value}}</td></tr>{{end}}</table></section>
    <section><h4>Table: Days-To-Pay Detail</h4>
      <table><tr><th>Payer</th><th>Avg Days To Pay</th></tr>
      {{range .Summary.AvgDaysByPayer}}<tr><td>{{.Label}}</td><td>{{.Value}}</td></tr>{{end}}</table></section>
  </div>
  <hr>
  <h3>Export / Share</h3>
  <p>
    <a href="/export/csv?{{.Query}}">Download CSV</a> |
    <a href="/export/xlsx?{{.Query}}">Download Excel</a> |
    <a href="/export/pdf?{{.Query}}">Download PDF (snapshot)</a> |
    <a href="/export/pdf?charts=1&{{.Query}}">PDF with charts</a> |
    <a href="/export/parquet?{{.Query}}">Download Parquet</a>
  </p>
  <h3>Summary Insights</h3>
  <ul>{{range .Insights}}<li>{{.}}</li>{{end}}</ul>
  <h3>Raw Data (preview)</h3>
  <p class="small">{{len .Preview}} of {{.Rows}} rows</p>
  <table>
    <tr><th>Date</th><th>Month</th><th>Payer</th><th>Denial Type</th><th>Denial Count</th><th>Amount</th><th>Overturned Count</th><th>Avg Days To Pay</th></tr>
    {{range .Preview}}<tr><td>{{date .}}</td><td>{{.Month}}</td><td>{{.Payer}}</td><td>{{.DenialType}}</td><td>{{.DenialCount}}</td><td>{{.Amount}}</td><td>{{.OverturnedCount}}</td><td>{{.AvgDaysToPay}}</td></tr>{{end}}
  </table>
</main>
</body>
</html>
`
