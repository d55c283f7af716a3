package outreach

import (
	htmltemplate "html/template"
	texttemplate "text/template"
)

const paragraph = `font-size: 16px; line-height: 1.6; margin-bottom: 16px;`

var outreachText = texttemplate.Must(texttemplate.New("outreach.txt").Parse(`Hi there,

{{.Opening}}

{{.Pitch}}
{{- if .AboutWork}}

A bit about my work: {{.AboutWork}}
{{- end}}

{{.CallToAction}}

Looking forward to connecting!

{{if .Signature}}{{.Signature}}{{else}}Best,
{{.SenderName}}{{end}}
`))

var outreachHTML = htmltemplate.Must(htmltemplate.New("outreach.html").Parse(`
<div style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; color: #333;">
  <p style="` + paragraph + `">Hi there,</p>
  <p style="` + paragraph + `">{{.Opening}}</p>
  <p style="` + paragraph + `">{{.Pitch}}</p>
  {{- if .AboutWork}}
  <p style="` + paragraph + `">A bit about my work: {{.AboutWork}}</p>
  {{- end}}
  <p style="` + paragraph + `">{{.CallToAction}}</p>
  <p style="font-size: 16px; line-height: 1.6; margin-bottom: 8px;">Looking forward to connecting!</p>
  {{- if .SignatureHTML}}
  <div style="margin-top: 24px; padding-top: 16px; border-top: 1px solid #eee;">{{range $i, $line := .SignatureHTML}}{{if $i}}<br>{{end}}{{$line}}{{end}}</div>
  {{- else}}
  <p style="font-size: 16px; line-height: 1.6;">Best,<br>{{.SenderName}}</p>
  {{- end}}
</div>
`))

var summaryText = texttemplate.Must(texttemplate.New("summary.txt").Parse(`Hi {{.Greeting}},

Here's your daily lead generation summary for {{.Day}}:

NEW LEADS FOUND: {{.LeadsFound}}
OUTREACH SENT: {{.LeadsContacted}}
{{if gt .LeadsFound 0}}
We found {{.LeadsFound}} new potential partners matching your criteria today.
{{- end}}
{{- if gt .LeadsContacted 0}}
We sent personalized outreach emails to {{.LeadsContacted}} leads on your behalf.
{{- end}}

Check your dashboard to see the new leads and track responses{{if .DashboardURL}}:
{{.DashboardURL}}{{else}}.{{end}}

---
You're receiving this because you enabled autonomous mode.
`))

var summaryHTML = htmltemplate.Must(htmltemplate.New("summary.html").Parse(`
<div style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; color: #333;">
  <p style="` + paragraph + `">Hi {{.Greeting}},</p>
  <p style="` + paragraph + `">Here's your daily lead generation summary for <strong>{{.Day}}</strong>:</p>
  <table style="width: 100%; background: #f3e8ff; border-radius: 12px; padding: 24px; margin: 24px 0; text-align: center;">
    <tr>
      <td><div style="font-size: 36px; font-weight: bold; color: #7c3aed;">{{.LeadsFound}}</div><div style="font-size: 14px; color: #6b7280;">New Leads Found</div></td>
      <td><div style="font-size: 36px; font-weight: bold; color: #3b82f6;">{{.LeadsContacted}}</div><div style="font-size: 14px; color: #6b7280;">Outreach Sent</div></td>
    </tr>
  </table>
  {{- if gt .LeadsFound 0}}
  <p style="` + paragraph + `">We found <strong>{{.LeadsFound}} new potential partners</strong> matching your criteria today.</p>
  {{- end}}
  {{- if gt .LeadsContacted 0}}
  <p style="` + paragraph + `">We sent personalized outreach emails to <strong>{{.LeadsContacted}} leads</strong> on your behalf.</p>
  {{- end}}
  <p style="` + paragraph + `">Check your dashboard to see the new leads and track responses.</p>
  {{- if .DashboardURL}}
  <p style="text-align: center; margin: 32px 0;"><a href="{{.DashboardURL}}" style="background: #7c3aed; color: white; padding: 12px 32px; border-radius: 8px; text-decoration: none; font-weight: 600;">View Dashboard</a></p>
  {{- end}}
  <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 24px 0;" />
  <p style="font-size: 12px; color: #9ca3af; text-align: center;">You're receiving this because you enabled autonomous mode.</p>
</div>
`))
