// Package classify assigns a category, a region, and tags to collected
// content by keyword matching over the title and body text.
package classify

import "strings"

// categoryKeywords is ordered. When two categories match the same
// number of keywords, the one declared first wins, so ordering here is
// part of the classifier's contract.
var categoryKeywords = []struct {
	name     string
	keywords []string
}{
	{"행사", []string{"행사", "이벤트", "축제", "페스티벌", "공연", "전시", "콘서트"}},
	{"공지", []string{"공지", "알림", "안내", "공고"}},
	{"채용", []string{"채용", "모집", "구인", "일자리", "취업"}},
	{"지원사업", []string{"지원", "신청", "보조금", "지원금", "사업", "프로그램"}},
	{"안전", []string{"안전", "재난", "사고", "예방", "점검"}},
	{"교통", []string{"교통", "도로", "주차", "버스", "운행"}},
	{"문화", []string{"문화", "예술", "미술", "음악", "영화"}},
	{"축제", []string{"축제", "페스티벌", "한마당"}},
	{"복지", []string{"복지", "돌봄", "건강", "의료", "지원"}},
	{"교육", []string{"교육", "강좌", "수업", "강의", "학습", "연수"}},
	{"환경", []string{"환경", "청소", "정화", "재활용", "쓰레기"}},
	{"산업", []string{"산업", "기업", "경제", "투자", "일자리"}},
}

// regionKeywords is checked in order; the first match wins.
var regionKeywords = []struct {
	name     string
	keywords []string
}{
	{"중구", []string{"중구"}},
	{"남구", []string{"남구"}},
	{"동구", []string{"동구"}},
	{"북구", []string{"북구"}},
	{"울주군", []string{"울주군", "울주"}},
}

var extraTagKeywords = []string{"울산", "시민", "참여", "무료", "신청", "접수", "문의", "안내"}

const (
	DefaultCategory = "공지"
	DefaultRegion   = "울산 전체"
	maxTags         = 10
)

type Result struct {
	Category string
	Region   string
	Tags     []string
}

// Classify runs category, region, and tag extraction over a title and
// body.
func Classify(title, content string) Result {
	combined := strings.ToLower(title + " " + content)
	return Result{
		Category: Category(combined),
		Region:   Region(combined),
		Tags:     Tags(title, content),
	}
}

// Category picks the category whose keywords occur most in the text.
// Ties go to the earliest declared category; no match falls back to the
// default.
func Category(text string) string {
	text = strings.ToLower(text)

	best := DefaultCategory
	bestCount := 0
	for _, cat := range categoryKeywords {
		count := 0
		for _, kw := range cat.keywords {
			if strings.Contains(text, kw) {
				count++
			}
		}
		if count > bestCount {
			best = cat.name
			bestCount = count
		}
	}
	return best
}

// Region returns the first matching district, or the whole-city default.
func Region(text string) string {
	text = strings.ToLower(text)

	for _, region := range regionKeywords {
		for _, kw := range region.keywords {
			if strings.Contains(text, kw) {
				return region.name
			}
		}
	}
	return DefaultRegion
}

// Tags collects every matched category keyword, region name, and common
// keyword in declaration order, capped at ten.
func Tags(title, content string) []string {
	combined := strings.ToLower(title + " " + content)

	var tags []string
	seen := make(map[string]struct{})
	add := func(tag string) {
		if len(tags) >= maxTags {
			return
		}
		if _, dup := seen[tag]; dup {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	for _, cat := range categoryKeywords {
		for _, kw := range cat.keywords {
			if strings.Contains(combined, kw) {
				add(kw)
			}
		}
	}
	for _, region := range regionKeywords {
		for _, kw := range region.keywords {
			if strings.Contains(combined, kw) {
				add(region.name)
			}
		}
	}
	for _, kw := range extraTagKeywords {
		if strings.Contains(combined, kw) {
			add(kw)
		}
	}

	return tags
}
