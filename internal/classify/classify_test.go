package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategory(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "count beats declaration order", text: "신입 사원 채용 공고, 서류 모집 중", want: "채용"},
		{name: "tie goes to earlier category", text: "울산 청년 취업 박람회 공고", want: "공지"},
		{name: "single keyword", text: "도로 보수 공사로 인한 우회 운행", want: "교통"},
		{name: "no keyword falls back", text: "오늘의 소식입니다", want: "공지"},
		{name: "empty text", text: "", want: "공지"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Category(tt.text))
		})
	}
}

func TestRegion(t *testing.T) {
	assert.Equal(t, "남구", Region("남구 주민센터 프로그램 안내"))
	assert.Equal(t, "울주군", Region("울주 지역 축제 소식"))
	assert.Equal(t, "울산 전체", Region("울산 청년 취업 박람회 공고"))
	assert.Equal(t, "중구", Region("중구와 북구 합동 행사"), "first declared district wins")
}

func TestTags(t *testing.T) {
	tags := Tags("울산 남구 축제 안내", "무료 공연과 전시, 참여 신청 접수")

	assert.Contains(t, tags, "축제")
	assert.Contains(t, tags, "공연")
	assert.Contains(t, tags, "남구")
	assert.Contains(t, tags, "울산")
	assert.Contains(t, tags, "무료")
	assert.LessOrEqual(t, len(tags), 10)

	// Category keywords come before regions and extras.
	assert.Equal(t, "축제", tags[0])
}

func TestTagsDeterministicOrder(t *testing.T) {
	first := Tags("울산 축제 무료 공연", "")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Tags("울산 축제 무료 공연", ""))
	}
}

func TestClassify(t *testing.T) {
	res := Classify("울산 청년 취업 박람회 공고", "")
	assert.Equal(t, "공지", res.Category)
	assert.Equal(t, "울산 전체", res.Region)
	assert.Contains(t, res.Tags, "취업")
	assert.Contains(t, res.Tags, "울산")
}
