package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// IndexPage serves the minimal embedded viewer page at /.
func IndexPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexPage))
}

const indexPage = `<!DOCTYPE html>
<html>
<head><title>Screen Share</title></head>
<body>
<h1>Screen Share Viewer</h1>
<div id="displays"></div>
<img id="frame" style="max-width:100%" alt="">
<script>
const ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws');
ws.onopen = () => ws.send(JSON.stringify({type: 'requestDisplayCount'}));
ws.onmessage = (ev) => {
  const msg = JSON.parse(ev.data);
  if (msg.type === 'displayCount') {
    const div = document.getElementById('displays');
    div.innerHTML = '';
    for (let i = 0; i < msg.count; i++) {
      const btn = document.createElement('button');
      btn.textContent = 'Display ' + i;
      btn.onclick = () => ws.send(JSON.stringify({type: 'selectDisplay', display: i}));
      div.appendChild(btn);
    }
  } else if (msg.type === 'frame' || msg.type === 'frameAvailable') {
    document.getElementById('frame').src = '/api/latest-frame?display=' + msg.display + '&t=' + Date.now();
  } else if (msg.type === 'error') {
    console.error(msg.message);
  }
};
</script>
</body>
</html>
`

const loginPage = `<!DOCTYPE html>
<html>
<head><title>Admin Login</title></head>
<body>
<h1>Admin Login</h1>
<form method="POST" action="/admin/login">
  <label>Username <input type="text" name="username"></label><br>
  <label>Password <input type="password" name="password"></label><br>
  <button type="submit">Login</button>
</form>
</body>
</html>
`

const loginFailedPage = `<!DOCTYPE html>
<html>
<head><title>Admin Login</title></head>
<body>
<h1>Admin Login</h1>
<p style="color:red">Invalid credentials</p>
<form method="POST" action="/admin/login">
  <label>Username <input type="text" name="username"></label><br>
  <label>Password <input type="password" name="password"></label><br>
  <button type="submit">Login</button>
</form>
</body>
</html>
`

const dashboardPage = `<!DOCTYPE html>
<html>
<head><title>Admin Dashboard</title></head>
<body>
<h1>Sessions</h1>
<a href="/admin/logout">Logout</a>
<div id="sessions"></div>
<script>
const ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/admin');
ws.onopen = () => ws.send(JSON.stringify({type: 'requestSessionList'}));
ws.onmessage = (ev) => {
  const msg = JSON.parse(ev.data);
  if (msg.type !== 'sessionList') return;
  const div = document.getElementById('sessions');
  div.innerHTML = '';
  for (const [user, sessions] of Object.entries(msg.sessions || {})) {
    const h = document.createElement('h3');
    h.textContent = user;
    div.appendChild(h);
    for (const s of sessions) {
      const row = document.createElement('div');
      row.textContent = s.id + ' (' + s.role + ') ';
      const btn = document.createElement('button');
      btn.textContent = 'Terminate';
      btn.onclick = () => ws.send(JSON.stringify({type: 'terminateSession', sessionId: s.id}));
      row.appendChild(btn);
      div.appendChild(row);
    }
  }
};
</script>
</body>
</html>
`
