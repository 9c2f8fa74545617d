package security

import (
	"net/http"
	"strings"
	"time"

	"realtime-session-server/internal/model"
)

// Имена кук, в которых клиент передает учетные данные.
// В сыром виде блок выглядит как "Authentication=...; Refresh=..."
const (
	CookieAuthentication = "Authentication"
	CookieRefresh        = "Refresh"
)

// ExtractCookieValue достает значение записи name из сырой строки кук
// вида "name=value; name2=value2"
func ExtractCookieValue(blob string, name string) (string, bool) {
	for _, pair := range strings.Split(blob, "; ") {
		key, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		if found && key == name {
			return value, true
		}
	}
	return "", false
}

// PatchCookieValue заменяет значение записи name, не трогая остальные записи.
// Если записи с таким именем нет — добавляет ее в конец
func PatchCookieValue(blob string, name string, value string) string {
	if blob == "" {
		return name + "=" + value
	}

	pairs := strings.Split(blob, "; ")
	for i, pair := range pairs {
		key, _, found := strings.Cut(strings.TrimSpace(pair), "=")
		if found && key == name {
			pairs[i] = name + "=" + value
			return strings.Join(pairs, "; ")
		}
	}

	return blob + "; " + name + "=" + value
}

// BuildAuthCookies собирает пару Set-Cookie для выдачи токенов клиенту.
// Обе куки недоступны скриптам и не уходят на сторонние сайты
func BuildAuthCookies(tokens *model.TokensPair, accessTTL time.Duration, refreshTTL time.Duration, production bool) []*http.Cookie {
	return []*http.Cookie{
		{
			Name:     CookieAuthentication,
			Value:    tokens.AccessToken,
			Path:     "/",
			MaxAge:   int(accessTTL.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
			Secure:   production,
		},
		{
			Name:     CookieRefresh,
			Value:    tokens.RefreshToken,
			Path:     "/",
			MaxAge:   int(refreshTTL.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
			Secure:   production,
		},
	}
}

// ClearAuthCookies гасит обе куки: пустое значение и срок в прошлом
func ClearAuthCookies(production bool) []*http.Cookie {
	expired := time.Unix(0, 0)
	cookies := make([]*http.Cookie, 0, 2)
	for _, name := range []string{CookieAuthentication, CookieRefresh} {
		cookies = append(cookies, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Expires:  expired,
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
			Secure:   production,
		})
	}
	return cookies
}
