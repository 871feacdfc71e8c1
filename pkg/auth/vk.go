package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Ошибки верификации строки запуска VK
var (
	ErrVKBadQuery     = errors.New("vk launch query is malformed")
	ErrVKBadSignature = errors.New("vk launch query signature mismatch")
)

// VerifyLaunchQuery проверяет подпись строки параметров запуска VK-приложения
// и возвращает идентификатор пользователя.
//
// Подпись считается как HMAC-SHA256 от отсортированных vk_-параметров,
// закодированных обратно в query-строку, с секретом приложения; результат
// кодируется base64url без набивки и сравнивается с параметром sign.
func VerifyLaunchQuery(query, secret string) (uint, error) {
	query = strings.TrimPrefix(query, "?")
	params, err := url.ParseQuery(query)
	if err != nil {
		return 0, ErrVKBadQuery
	}

	sign := params.Get("sign")
	if sign == "" {
		return 0, ErrVKBadQuery
	}

	keys := make([]string, 0, len(params))
	for key := range params {
		if strings.HasPrefix(key, "vk_") {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return 0, ErrVKBadQuery
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+url.QueryEscape(params.Get(key)))
	}
	signed := strings.Join(pairs, "&")

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signed))
	expected := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(sign)) {
		return 0, ErrVKBadSignature
	}

	userID, err := strconv.ParseUint(params.Get("vk_user_id"), 10, 32)
	if err != nil || userID == 0 {
		return 0, ErrVKBadQuery
	}
	return uint(userID), nil
}
