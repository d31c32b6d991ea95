package monitor

import (
	"strings"
	"sync"
)

// Labels is a small UI string catalog keyed by label then locale.
type Labels struct {
	mu     sync.RWMutex
	values map[string]map[string]string
}

// NewLabels builds a catalog from key → locale → text.
func NewLabels(values map[string]map[string]string) *Labels {
	l := &Labels{values: make(map[string]map[string]string, len(values))}
	for key, byLocale := range values {
		l.values[key] = normalizeLocaleMap(byLocale)
	}
	return l
}

// Set adds or replaces one translation.
func (l *Labels) Set(key, locale, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.values[key] == nil {
		l.values[key] = map[string]string{}
	}
	l.values[key][normalizeLocale(locale)] = text
}

// Get resolves key for locale, falling back to the base language, then the
// default entry, then the key itself.
func (l *Labels) Get(locale, key string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return ResolveLocalizedValue(l.values[key], locale, key)
}

// Map returns every label for locale with dots replaced by underscores so
// templates can address them as attributes.
func (l *Labels) Map(locale string) map[string]string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]string, len(l.values))
	for key, values := range l.values {
		out[strings.ReplaceAll(key, ".", "_")] = ResolveLocalizedValue(values, locale, key)
	}
	return out
}

// ResolveLocalizedValue selects the best translation for the provided locale and falls back to the supplied value.
// Keys are matched case-insensitively, and language-region pairs (`ko-kr`) fall back to their base language (`ko`).
func ResolveLocalizedValue(values map[string]string, locale, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	for _, candidate := range localeCandidates(locale) {
		if value, ok := values[candidate]; ok && value != "" {
			return value
		}
	}
	return fallback
}

func normalizeLocaleMap(values map[string]string) map[string]string {
	normalized := make(map[string]string, len(values))
	for key, value := range values {
		key = normalizeLocale(key)
		if key == "" || value == "" {
			continue
		}
		normalized[key] = value
	}
	return normalized
}

func localeCandidates(locale string) []string {
	locale = normalizeLocale(locale)
	if locale == "" {
		return []string{"default"}
	}
	candidates := []string{locale}
	if idx := strings.IndexAny(locale, "-_"); idx > 0 {
		candidates = append(candidates, locale[:idx])
	}
	return append(candidates, "default")
}

func normalizeLocale(locale string) string {
	return strings.TrimSpace(strings.ToLower(locale))
}

// DefaultLabels is the built-in Korean/English catalog. Korean is the default.
func DefaultLabels() *Labels {
	return NewLabels(map[string]map[string]string{
		"app.title":               {"default": "발전소 모니터링", "en": "Plant Monitoring"},
		"nav.home":                {"default": "홈", "en": "Home"},
		"nav.powerplant":          {"default": "발전소", "en": "Plants"},
		"nav.analysis":            {"default": "분석", "en": "Analysis"},
		"nav.settings":            {"default": "설정", "en": "Settings"},
		"plants.total":            {"default": "전체 발전소", "en": "Total plants"},
		"plants.solar":            {"default": "태양광", "en": "Solar"},
		"plants.wind":             {"default": "풍력", "en": "Wind"},
		"plants.normal":           {"default": "정상", "en": "Normal"},
		"plants.maintenance":      {"default": "점검중", "en": "Maintenance"},
		"plants.search":           {"default": "발전소 검색", "en": "Search plants"},
		"plants.all_types":        {"default": "전체 유형", "en": "All types"},
		"plants.empty":            {"default": "검색 결과가 없습니다", "en": "No plants found"},
		"pagination.prev":         {"default": "이전", "en": "Previous"},
		"pagination.next":         {"default": "다음", "en": "Next"},
		"analysis.current_power":  {"default": "현재 발전량", "en": "Current output"},
		"analysis.cumulative":     {"default": "누적 발전량", "en": "Cumulative output"},
		"analysis.efficiency":     {"default": "발전 효율", "en": "Efficiency"},
		"analysis.irradiance":     {"default": "일사량", "en": "Irradiance"},
		"analysis.temperature":    {"default": "기온", "en": "Temperature"},
		"analysis.cloud":          {"default": "운량", "en": "Cloud cover"},
		"analysis.hourly":         {"default": "시간별 예측 발전량", "en": "Hourly forecast"},
		"analysis.daily":          {"default": "일별 예측 발전량", "en": "Daily forecast"},
		"analysis.plant_info":     {"default": "발전소 정보", "en": "Plant details"},
		"plant.name":              {"default": "발전소명", "en": "Name"},
		"plant.place":             {"default": "위치", "en": "Location"},
		"plant.capacity":          {"default": "총 설치 용량", "en": "Installed capacity"},
		"plant.start_date":        {"default": "가동 시작일", "en": "Operating since"},
		"plant.status":            {"default": "현재 상태", "en": "Status"},
		"map.view":                {"default": "지도 보기", "en": "View map"},
		"map.loading":             {"default": "지도 로딩 중...", "en": "Loading map..."},
		"map.error":               {"default": "지도 로드 실패", "en": "Failed to load map"},
		"map.close":               {"default": "닫기", "en": "Close"},
		"settings.title":          {"default": "설정", "en": "Settings"},
		"settings.system":         {"default": "시스템 설정", "en": "System"},
		"settings.theme_to_dark":  {"default": "다크 모드로 전환", "en": "Switch to dark mode"},
		"settings.theme_to_light": {"default": "라이트 모드로 전환", "en": "Switch to light mode"},
		"settings.theme_light":    {"default": "라이트 모드", "en": "Light mode"},
		"settings.theme_dark":     {"default": "다크 모드", "en": "Dark mode"},
		"home.title":              {"default": "오늘의 발전 현황", "en": "Today at a glance"},
		"home.open_plants":        {"default": "발전소 목록 보기", "en": "Browse plants"},
		"clock.label":             {"default": "현재 시각", "en": "Now"},
	})
}
