package handlers_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"

	"github.com/charlesng35/investorportal/internal/handlers/testutil"
)

func stringsReader(s string) io.Reader {
	return strings.NewReader(s)
}

func httptestPostForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// serve bypasses the Env cookie jar.
func serve(env *testutil.Env, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	return w
}

func jsonID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
