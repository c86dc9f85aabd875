package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginAllowed(t *testing.T) {
	allowed := []string{"https://panel.example.com", "https://admin.example.com"}

	assert.True(t, originAllowed("https://panel.example.com", allowed))
	assert.True(t, originAllowed("https://admin.example.com", allowed))
	assert.False(t, originAllowed("https://evil.example.com", allowed))
	assert.False(t, originAllowed("http://panel.example.com", allowed), "scheme is part of the origin")

	// Запросы без Origin (не браузерные клиенты) проходят.
	assert.True(t, originAllowed("", allowed))

	// Пустой список и wildcard открывают доступ всем, как и CORS-слой.
	assert.True(t, originAllowed("https://anywhere.example.com", nil))
	assert.True(t, originAllowed("https://anywhere.example.com", []string{"*"}))
}
