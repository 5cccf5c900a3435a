package connector

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content_collector/internal/domain"
)

const instagramFixture = `<html><body><script>
window._sharedData = {"data":{"user":{"edge_owner_to_timeline_media":{"edges":[
{"node":{
  "shortcode":"CxAbc123",
  "taken_at_timestamp":1710000000,
  "display_url":"https://scontent.cdninstagram.com/a.jpg",
  "is_video":false,
  "edge_liked_by":{"count":42},
  "edge_media_to_comment":{"count":3},
  "edge_media_to_caption":{"edges":[{"node":{"text":"울산 축제 소식\n자세한 내용은 본문에"}}]},
  "edge_sidecar_to_children":{"edges":[
    {"node":{"display_url":"https://scontent.cdninstagram.com/a.jpg"}},
    {"node":{"display_url":"https://scontent.cdninstagram.com/b.jpg"}}
  ]}
}},
{"node":{
  "shortcode":"CxDef456",
  "taken_at_timestamp":1710100000,
  "display_url":"https://scontent.cdninstagram.com/c.mp4.jpg",
  "is_video":true,
  "video_view_count":900,
  "edge_media_to_caption":{"edges":[]}
}},
{"node":{"shortcode":"CxAbc123","display_url":"https://scontent.cdninstagram.com/a.jpg"}}
]}}}};
</script></body></html>`

func TestInstagramParseProfile(t *testing.T) {
	source := &domain.Source{ID: 1, Type: domain.SourceTypeInstagram, BaseURL: "@ulsan_official"}
	conn := NewInstagramConnector(source, NewClient(5*time.Second), nil, slog.Default())

	items := conn.parseProfile(instagramFixture)
	require.Len(t, items, 2, "repeated shortcodes collapse to one item")

	first := items[0]
	assert.Equal(t, "https://www.instagram.com/p/CxAbc123/", first.URL)
	assert.Equal(t, "CxAbc123", first.SourceItemID)
	assert.Equal(t, "울산 축제 소식", first.Title)
	assert.Contains(t, first.RawText, "자세한 내용은 본문에")
	require.NotNil(t, first.PublishedAt)
	assert.Equal(t, time.Unix(1710000000, 0).UTC(), *first.PublishedAt)
	assert.Equal(t, []string{
		"https://scontent.cdninstagram.com/a.jpg",
		"https://scontent.cdninstagram.com/b.jpg",
	}, first.ImageURLs, "carousel children are appended and duplicates dropped")
	assert.Equal(t, int64(42), first.Meta["likes"])
	assert.Equal(t, int64(3), first.Meta["comments"])

	video := items[1]
	assert.Equal(t, "Instagram post CxDef456", video.Title, "captionless posts fall back to a generated title")
	assert.Equal(t, true, video.Meta["is_video"])
	assert.Equal(t, int64(900), video.Meta["video_views"])
}

func TestInstagramProfileURL(t *testing.T) {
	for _, tt := range []struct{ in, want string }{
		{"ulsan_official", "https://www.instagram.com/ulsan_official/"},
		{"@ulsan_official", "https://www.instagram.com/ulsan_official/"},
		{"https://www.instagram.com/ulsan_official/", "https://www.instagram.com/ulsan_official/"},
		{"https://www.instagram.com/ulsan_official/reels/", "https://www.instagram.com/ulsan_official/"},
	} {
		got, err := instagramProfileURL(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := instagramProfileURL("")
	assert.Error(t, err)
}

const threadsFixture = `<html><body><script>
{"require":[["ScheduledServerJS","handle",null,[{"__bbox":{"require":[["RelayPrefetchedStreamCache","next",[],["x",{"__bbox":{"result":{"data":{"mediaData":{"edges":[{"node":{"thread_items":[
{"post":{
  "code":"DAxyz789",
  "taken_at":1711111111,
  "caption":{"text":"봄맞이 행사 안내"},
  "like_count":17,
  "text_post_app_info":{"direct_reply_count":5},
  "image_versions2":{"candidates":[{"url":"https://scontent.cdninstagram.com/t1.jpg","width":1080},{"url":"https://scontent.cdninstagram.com/t1-small.jpg","width":320}]}
}},
{"post":{
  "code":"DAuvw456",
  "taken_at":1711200000,
  "caption":{"text":""},
  "media_type":2,
  "carousel_media":[
    {"image_versions2":{"candidates":[{"url":"https://scontent.cdninstagram.com/c1.jpg"}]}},
    {"image_versions2":{"candidates":[{"url":"https://scontent.cdninstagram.com/c2.jpg"}]}}
  ]
}}
]}}]}}}}}]]]}}]]]}
</script></body></html>`

func TestThreadsParseProfile(t *testing.T) {
	source := &domain.Source{ID: 2, Type: domain.SourceTypeThreads, BaseURL: "@ulsan_official"}
	conn := NewThreadsConnector(source, NewClient(5*time.Second), slog.Default())
	conn.handle = "ulsan_official"

	items := conn.parseProfile(threadsFixture)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "https://www.threads.com/@ulsan_official/post/DAxyz789", first.URL)
	assert.Equal(t, "봄맞이 행사 안내", first.Title)
	require.NotNil(t, first.PublishedAt)
	assert.Equal(t, time.Unix(1711111111, 0).UTC(), *first.PublishedAt)
	assert.Equal(t, []string{"https://scontent.cdninstagram.com/t1.jpg"}, first.ImageURLs, "only the largest candidate is kept")
	assert.Equal(t, int64(17), first.Meta["likes"])
	assert.Equal(t, int64(5), first.Meta["replies"])

	carousel := items[1]
	assert.Equal(t, "Threads post DAuvw456", carousel.Title)
	assert.Equal(t, []string{
		"https://scontent.cdninstagram.com/c1.jpg",
		"https://scontent.cdninstagram.com/c2.jpg",
	}, carousel.ImageURLs)
	assert.Equal(t, true, carousel.Meta["is_video"])
}

func TestThreadsProfileURL(t *testing.T) {
	for _, tt := range []struct{ in, wantURL, wantHandle string }{
		{"@ulsan_official", "https://www.threads.com/@ulsan_official", "ulsan_official"},
		{"https://www.threads.net/@ulsan_official", "https://www.threads.com/@ulsan_official", "ulsan_official"},
		{"https://www.threads.com/@ulsan_official/post/x", "https://www.threads.com/@ulsan_official", "ulsan_official"},
	} {
		gotURL, gotHandle, err := threadsProfileURL(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.wantURL, gotURL, tt.in)
		assert.Equal(t, tt.wantHandle, gotHandle, tt.in)
	}
}

const xFixture = `<html><body><script>
window.__INITIAL_STATE__ = {"entities":{"tweets":{"entities":{
"1764000000000000001":{
  "id_str":"1764000000000000001",
  "full_text":"울산시 교통 통제 안내 #울산",
  "created_at":"Tue Mar 05 09:30:00 +0000 2024",
  "favorite_count":12,
  "retweet_count":4,
  "reply_count":2,
  "entities":{"media":[{"media_url_https":"https://pbs.twimg.com/media/one.jpg"}]}
},
"1764000000000000002":{
  "id_str":"1764000000000000002",
  "text":"짧은 공지",
  "created_at":"Wed Mar 06 01:00:00 +0000 2024",
  "entities":{}
},
"not_a_tweet":{"id_str":"x"}
}}}};
</script></body></html>`

func TestXParseProfile(t *testing.T) {
	source := &domain.Source{ID: 3, Type: domain.SourceTypeX, BaseURL: "@ulsan_official"}
	conn := NewXConnector(source, NewClient(5*time.Second), slog.Default())
	conn.handle = "ulsan_official"

	items := conn.parseProfile(xFixture)
	require.Len(t, items, 2)

	byID := map[string]domain.CandidateItem{}
	for _, item := range items {
		byID[item.SourceItemID] = item
	}

	first, ok := byID["1764000000000000001"]
	require.True(t, ok)
	assert.Equal(t, "https://x.com/ulsan_official/status/1764000000000000001", first.URL)
	assert.Equal(t, "울산시 교통 통제 안내 #울산", first.RawText)
	require.NotNil(t, first.PublishedAt)
	assert.Equal(t, time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC), *first.PublishedAt)
	assert.Equal(t, []string{"https://pbs.twimg.com/media/one.jpg"}, first.ImageURLs)
	assert.Equal(t, int64(12), first.Meta["likes"])
	assert.Equal(t, int64(4), first.Meta["reposts"])

	second, ok := byID["1764000000000000002"]
	require.True(t, ok)
	assert.Equal(t, "짧은 공지", second.Title, "text field is accepted when full_text is absent")
	assert.Empty(t, second.ImageURLs)
}

func TestXProfileURL(t *testing.T) {
	for _, tt := range []struct{ in, wantURL, wantHandle string }{
		{"@ulsan_official", "https://x.com/ulsan_official", "ulsan_official"},
		{"https://twitter.com/ulsan_official", "https://x.com/ulsan_official", "ulsan_official"},
		{"https://x.com/ulsan_official/status/1", "https://x.com/ulsan_official", "ulsan_official"},
	} {
		gotURL, gotHandle, err := xProfileURL(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.wantURL, gotURL, tt.in)
		assert.Equal(t, tt.wantHandle, gotHandle, tt.in)
	}
}
