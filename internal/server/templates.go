package server

import "html/template"

// The UI is a handful of server-rendered pages. Templates are compiled once
// at startup; handlers render them through gin's HTML renderer.

const styleTemplate = `{{define "style"}}<style>
  :root { color-scheme: light; }
  * { box-sizing: border-box; }
  body {
    margin: 0;
    font-family: -apple-system, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
    background: #f4f5f7;
    color: #1d2433;
  }
  main { max-width: 760px; margin: 40px auto; padding: 0 16px; }
  h1 { font-size: 1.6rem; margin-bottom: 4px; }
  h2 { font-size: 1.15rem; margin: 28px 0 10px; }
  .caption { color: #5b6472; margin-top: 0; }
  .card {
    background: #fff;
    border: 1px solid #e1e4e8;
    border-radius: 10px;
    padding: 24px;
    margin-top: 20px;
  }
  .banner { border-radius: 8px; padding: 12px 14px; margin: 14px 0; font-size: 0.95rem; }
  .banner.error { background: #fdecea; border: 1px solid #f5c0ba; color: #8a1f11; }
  .banner.notice { background: #e9f7ef; border: 1px solid #b7e1c4; color: #1e6b3a; }
  .button, button {
    display: inline-block;
    width: 100%;
    padding: 10px 14px;
    border: 1px solid #c9ced6;
    border-radius: 8px;
    background: #fff;
    color: #1d2433;
    font-size: 0.95rem;
    text-align: center;
    text-decoration: none;
    cursor: pointer;
  }
  button[type=submit] { background: #1d4ed8; border-color: #1d4ed8; color: #fff; }
  button[type=submit]:disabled { background: #aebadd; border-color: #aebadd; cursor: not-allowed; }
  button.danger { background: #fff; border-color: #d9822b; color: #a8500f; width: auto; padding: 6px 10px; }
  .divider { display: flex; align-items: center; color: #8b93a1; margin: 18px 0; font-size: 0.85rem; }
  .divider::before, .divider::after { content: ""; flex: 1; border-top: 1px solid #e1e4e8; }
  .divider::before { margin-right: 10px; }
  .divider::after { margin-left: 10px; }
  label { display: block; margin: 12px 0 4px; font-size: 0.9rem; color: #3c4454; }
  input, select {
    width: 100%;
    padding: 9px 10px;
    border: 1px solid #c9ced6;
    border-radius: 8px;
    font-size: 0.95rem;
  }
  form.inline { display: inline; }
  .spinner {
    display: inline-block;
    width: 16px; height: 16px;
    margin-left: 8px;
    border: 2px solid #c9ced6;
    border-top-color: #1d4ed8;
    border-radius: 50%;
    vertical-align: middle;
    animation: spin 0.8s linear infinite;
  }
  @keyframes spin { to { transform: rotate(360deg); } }
  .account { display: flex; justify-content: space-between; align-items: center; gap: 12px; }
  .account form button { width: auto; padding: 8px 14px; }
  table { width: 100%; border-collapse: collapse; margin-top: 10px; }
  th, td { text-align: left; padding: 8px 10px; border-bottom: 1px solid #e1e4e8; font-size: 0.92rem; }
  .grid { display: grid; grid-template-columns: 1fr 1fr; gap: 12px; }
  .muted { color: #5b6472; font-size: 0.88rem; }
  .big { font-size: 1.25rem; font-weight: 600; }
  footer { margin: 28px 0; color: #8b93a1; font-size: 0.82rem; text-align: center; }
  footer a { color: #5b6472; }
</style>{{end}}`

const loginTemplate = `{{define "login"}}<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>UK Citizenship Absence Checker</title>
  {{template "style"}}
</head>
<body>
<main style="max-width: 430px;">
  <h1>UK Citizenship Absence Checker</h1>
  <p class="caption">Helper for EU / EEA citizens with pre-settled or settled status.</p>

  <div class="card">
    <h2 style="margin-top: 0;">Sign in</h2>
    <p class="muted">Please sign in to view and save your trips.</p>

    {{if .Error}}<div class="banner error">{{.Error}}</div>{{end}}
    {{if .Notice}}<div class="banner notice">{{.Notice}}</div>{{end}}

    <a class="button" id="google-button" href="/auth/google">Continue with Google</a>

    <div class="divider">or</div>

    <form method="post" action="/auth/otp" id="otp-form">
      <label for="email">Email</label>
      <input type="email" id="email" name="email" value="{{.Email}}"
             placeholder="you@example.com" autocomplete="email">
      <div style="margin-top: 14px;">
        <button type="submit" id="otp-submit" disabled>Email me a sign-in link</button>
        <span class="spinner" id="otp-spinner" hidden></span>
      </div>
    </form>
  </div>

  <footer>
    This tool is for information only and does not constitute legal or immigration advice.<br>
    <a href="https://www.gov.uk/government/publications/form-an-guidance" rel="noopener">Home Office guidance</a>
    &middot; <a href="/privacy">Privacy</a>
  </footer>
</main>
<script>
(function () {
  var pattern = /^\S+@\S+\.\S+$/;
  var email = document.getElementById("email");
  var submit = document.getElementById("otp-submit");
  var form = document.getElementById("otp-form");
  var spinner = document.getElementById("otp-spinner");

  function sync() {
    submit.disabled = !pattern.test(email.value.trim());
  }
  email.addEventListener("input", sync);
  sync();

  function clearBanners() {
    var banners = document.querySelectorAll(".banner");
    for (var i = 0; i < banners.length; i++) {
      banners[i].remove();
    }
  }

  form.addEventListener("submit", function () {
    clearBanners();
    submit.disabled = true;
    spinner.hidden = false;
  });
  document.getElementById("google-button").addEventListener("click", clearBanners);
})();
</script>
</body>
</html>{{end}}`

// The provider returns tokens in the URL fragment, which never reaches the
// server. This page runs only to move the fragment into the query string
// and reload, so the callback handler can finish the sign-in.
const callbackTemplate = `{{define "callback"}}<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Signing you in</title>
  {{template "style"}}
</head>
<body>
<main style="max-width: 430px; text-align: center;">
  <div class="card">
    <span class="spinner"></span>
    <p class="muted">Completing sign-in</p>
  </div>
</main>
<script>
(function () {
  var hash = window.location.hash;
  if (hash && hash.length > 1) {
    window.location.replace("/auth/callback?" + hash.substring(1));
    return;
  }
  window.location.replace("/login");
})();
</script>
</body>
</html>{{end}}`

const dashboardTemplate = `{{define "dashboard"}}<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>UK Citizenship Absence Checker</title>
  {{template "style"}}
</head>
<body>
<main>
  <h1>UK Citizenship Absence Checker</h1>
  <p class="caption">Helper for EU / EEA citizens with pre-settled or settled status.</p>

  <div class="card account">
    <div>
      Signed in as <strong>{{.Email}}</strong>
      {{if .DevDetails}}<div class="muted">User ID: {{.UserID}}</div>{{end}}
    </div>
    <form method="post" action="/auth/logout">
      <button type="submit">Sign out</button>
    </form>
  </div>

  {{if .Error}}<div class="banner error">{{.Error}}</div>{{end}}
  {{if .Notice}}<div class="banner notice">{{.Notice}}</div>{{end}}

  <div class="card">
    <h2 style="margin-top: 0;">1. Your saved trips</h2>
    {{if .Trips}}
    <table>
      <tr><th>Trip</th><th>Left the UK</th><th>Returned</th><th>Absence days</th><th>Note</th><th></th></tr>
      {{range .Trips}}
      <tr>
        <td>{{.Index}}</td>
        <td>{{.StartUK}}</td>
        <td>{{.EndUK}}</td>
        <td>{{.Days}}</td>
        <td>{{.Note}}</td>
        <td>
          <form class="inline" method="post" action="/trips/{{.ID}}/delete">
            <button type="submit" class="danger">Delete</button>
          </form>
        </td>
      </tr>
      {{end}}
    </table>
    <p class="muted">Only full days abroad count as absences. Departure and return days do not.</p>
    {{else}}
    <p class="muted">No saved trips yet.</p>
    {{end}}
  </div>

  <div class="card">
    <h2 style="margin-top: 0;">2. Add a new trip</h2>
    <form method="post" action="/trips">
      <div class="grid">
        <div>
          <label for="start_date">Date you LEFT the UK</label>
          <input type="date" id="start_date" name="start_date" required>
        </div>
        <div>
          <label for="end_date">Date you RETURNED to the UK</label>
          <input type="date" id="end_date" name="end_date" required>
        </div>
      </div>
      <label for="note">Optional note</label>
      <input type="text" id="note" name="note" placeholder="Xmas with parents, Ibiza trip, work travel">
      <div style="margin-top: 14px;"><button type="submit">Add trip</button></div>
    </form>
  </div>

  <div class="card">
    <h2 style="margin-top: 0;">3. Choose 'today' and see your current position</h2>
    <form method="get" action="/dashboard">
      <div class="grid">
        <div>
          <label for="on">Assume today's date is</label>
          <input type="date" id="on" name="on" value="{{.OnISO}}" onchange="this.form.submit()">
        </div>
        <div>
          <label for="policy">Policy</label>
          <select id="policy" name="policy" onchange="this.form.submit()">
            {{range .PolicyOptions}}
            <option value="{{.Name}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>
            {{end}}
          </select>
        </div>
      </div>
    </form>
    <p class="muted">Using today as: {{.OnUK}}</p>
    {{if .Trips}}
    <p>Last 12 months: <strong>{{.Summary.Days12Months}}</strong> / {{.Summary.Max12Months}}</p>
    <p>Last 5 years: <strong>{{.Summary.Days5Years}}</strong> / {{.Summary.Max5Years}}</p>
    {{else}}
    <p class="muted">Add trips to see your absence summary.</p>
    {{end}}
  </div>

  <div class="card">
    <h2 style="margin-top: 0;">4. Earliest eligible application date</h2>
    {{if .Earliest.Found}}
    <p class="big">Earliest eligible date: {{.Earliest.DateUK}}</p>
    <p>Absences (12 months): <strong>{{.Earliest.Days12Months}}</strong></p>
    <p>Absences (5 years): <strong>{{.Earliest.Days5Years}}</strong></p>
    <p>Home Office presence test date: <strong>{{.Earliest.PresenceUK}}</strong></p>
    <p>Present in UK on that date: <strong>{{if .Earliest.Present}}Yes{{else}}No{{end}}</strong></p>
    {{else}}
    <div class="banner error">No eligible date found within the next {{.Earliest.SearchYears}} years.</div>
    {{end}}
    {{if .LastRecompute}}<p class="muted">Last background recompute: {{.LastRecompute}}</p>{{end}}
  </div>

  <footer>
    This tool is for information only and does not constitute legal or immigration advice.
    {{if .DevDetails}}<br>absenced {{.Version}} &middot; <a href="/api/system/info">system info</a>{{end}}
  </footer>
</main>
</body>
</html>{{end}}`

const privacyTemplate = `{{define "privacy"}}<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Privacy - UK Citizenship Absence Checker</title>
  {{template "style"}}
</head>
<body>
<main style="max-width: 560px;">
  <h1>Privacy</h1>
  <div class="card">
    <p>This service stores the trips you enter and the email address of your
    account, nothing else. Sign-in is handled by a hosted authentication
    provider; no passwords are ever stored here. You can delete your trips at
    any time from the dashboard.</p>
  </div>
  <footer><a href="/login">Back to sign in</a></footer>
</main>
</body>
</html>{{end}}`

// buildTemplates parses every page template into one set.
func buildTemplates() *template.Template {
	t := template.New("pages")
	for _, src := range []string{
		styleTemplate,
		loginTemplate,
		callbackTemplate,
		dashboardTemplate,
		privacyTemplate,
	} {
		t = template.Must(t.Parse(src))
	}
	return t
}
