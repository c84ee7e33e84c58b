package pixiv

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cast"
)

const (
	imageSizesAll      = "px_128x128,small,medium,large,px_480mw"
	imageSizesList     = "px_128x128,px480mw,large"
	imageSizesFavorite = "px_128x128,px_480mw,large"
	profileImageSizes  = "px_170x170,px_50x50"
)

// endpoint is a path template with the default parameters.
// The path may contain "{id}" or "{type}" placeholders.
type endpoint struct {
	method   string
	path     string
	defaults []Param
}

var (
	badWordsEndpoint = endpoint{
		method: http.MethodGet,
		path:   "/v1.1/bad_words.json",
	}
	workEndpoint = endpoint{
		method: http.MethodGet,
		path:   "/v1/works/{id}.json",
		defaults: []Param{
			{"image_sizes", imageSizesAll},
			{"include_stats", "true"},
		},
	}
	userEndpoint = endpoint{
		method: http.MethodGet,
		path:   "/v1/users/{id}.json",
		defaults: []Param{
			{"profile_image_sizes", profileImageSizes},
			{"image_sizes", imageSizesAll},
			{"include_stats", "1"},
			{"include_profile", "1"},
			{"include_workspace", "1"},
			{"include_contacts", "1"},
		},
	}
	feedEndpoint = endpoint{
		method: http.MethodGet,
		path:   "/v1/me/feeds.json",
		defaults: []Param{
			{"relation", "all"},
			{"type", "touch_nottext"},
			{"show_r18", "1"},
		},
	}
	favoriteWorksEndpoint = endpoint{
		method: http.MethodGet,
		path:   "/v1/me/favorite_works.json",
		defaults: []Param{
			{"page", "1"},
			{"per_page", "50"},
			{"publicity", "public"},
			{"image_sizes", imageSizesFavorite},
		},
	}
	favoriteWorkAddEndpoint = endpoint{
		method: http.MethodPost,
		path:   "/v1/me/favorite_works.json",
		defaults: []Param{
			{"publicity", "public"},
		},
	}
	favoriteWorksRemoveEndpoint = endpoint{
		method: http.MethodDelete,
		path:   "/v1/me/favorite_works.json",
		defaults: []Param{
			{"publicity", "public"},
		},
	}
	followingWorksEndpoint = endpoint{
		method: http.MethodGet,
		path:   "/v1/me/following/works.json",
		defaults: []Param{
			{"page", "1"},
			{"per_page", "30"},
			{"image_sizes", imageSizesList},
			{"include_stats", "true"},
			{"include_sanity_level", "true"},
		},
	}
	followingEndpoint = endpoint{
		method: http.MethodGet,
		path:   "/v1/me/following.json",
		defaults: []Param{
			{"page", "1"},
			{"per_page", "30"},
			{"publicity", "public"},
		},
	}
	followingAddEndpoint = endpoint{
		method: http.MethodPost,
		path:   "/v1/me/favorite-users.json",
		defaults: []Param{
			{"publicity", "public"},
		},
	}
	followingRemoveEndpoint = endpoint{
		method: http.MethodDelete,
		path:   "/v1/me/favorite-users.json",
		defaults: []Param{
			{"publicity", "public"},
		},
	}
	userWorksEndpoint = endpoint{
		method: http.MethodGet,
		path:   "/v1/users/{id}/works.json",
		defaults: []Param{
			{"page", "1"},
			{"per_page", "30"},
			{"image_sizes", imageSizesList},
			{"include_stats", "true"},
			{"include_sanity_level", "true"},
		},
	}
	userFavoriteWorksEndpoint = endpoint{
		method: http.MethodGet,
		path:   "/v1/users/{id}/favorite_works.json",
		defaults: []Param{
			{"page", "1"},
			{"per_page", "30"},
			{"image_sizes", imageSizesList},
			{"include_sanity_level", "true"},
		},
	}
	userFeedEndpoint = endpoint{
		method: http.MethodGet,
		path:   "/v1/users/{id}/feeds.json",
		defaults: []Param{
			{"relation", "all"},
			{"type", "touch_nottext"},
			{"show_r18", "1"},
		},
	}
	userFollowingEndpoint = endpoint{
		method: http.MethodGet,
		path:   "/v1/users/{id}/following.json",
		defaults: []Param{
			{"page", "1"},
			{"per_page", "30"},
		},
	}
	// The capitalized "True" values are accepted by the ranking endpoint as they are.
	rankingEndpoint = endpoint{
		method: http.MethodGet,
		path:   "/v1/ranking/{type}.json",
		defaults: []Param{
			{"mode", "daily"},
			{"page", "1"},
			{"per_page", "50"},
			{"include_stats", "True"},
			{"include_sanity_level", "True"},
			{"image_sizes", imageSizesAll},
			{"profile_image_sizes", profileImageSizes},
		},
	}
	searchWorksEndpoint = endpoint{
		method: http.MethodGet,
		path:   "/v1/search/works.json",
		defaults: []Param{
			{"page", "1"},
			{"per_page", "30"},
			{"mode", "text"},
			{"period", "all"},
			{"order", "desc"},
			{"sort", "date"},
			{"types", "illustration,manga,ugoira"},
			{"include_stats", "true"},
			{"include_sanity_level", "true"},
			{"image_sizes", imageSizesList},
		},
	}
	latestWorksEndpoint = endpoint{
		method: http.MethodGet,
		path:   "/v1/works.json",
		defaults: []Param{
			{"page", "1"},
			{"per_page", "30"},
			{"include_stats", "true"},
			{"include_sanity_level", "true"},
			{"image_sizes", imageSizesList},
			{"profile_image_sizes", profileImageSizes},
		},
	}
)

// BadWordsRequest returns the list of words not allowed in comments and tags.
func (a *API) BadWordsRequest() RequestBuilder {
	return a.endpointRequest(badWordsEndpoint, nil)
}

// WorkRequest returns the work detail.
func (a *API) WorkRequest(workID int) RequestBuilder {
	return a.endpointRequest(workEndpoint, map[string]string{"id": cast.ToString(workID)})
}

// UserRequest returns the user profile.
func (a *API) UserRequest(userID int) RequestBuilder {
	return a.endpointRequest(userEndpoint, map[string]string{"id": cast.ToString(userID)})
}

// FeedRequest returns the activity feed of the logged-in user.
func (a *API) FeedRequest() RequestBuilder {
	return a.endpointRequest(feedEndpoint, nil)
}

// FavoriteWorksRequest lists works bookmarked by the logged-in user.
func (a *API) FavoriteWorksRequest() RequestBuilder {
	return a.endpointRequest(favoriteWorksEndpoint, nil)
}

// FavoriteWorkAddRequest bookmarks the work.
func (a *API) FavoriteWorkAddRequest(workID int) RequestBuilder {
	return a.endpointRequest(favoriteWorkAddEndpoint, nil, P("work_id", workID))
}

// FavoriteWorksRemoveRequest removes bookmarks, the ids are favorite ids, not work ids.
func (a *API) FavoriteWorksRemoveRequest(favoriteIDs ...int) RequestBuilder {
	return a.endpointRequest(favoriteWorksRemoveEndpoint, nil, Param{Key: "ids", Value: joinIDs(favoriteIDs)})
}

// FollowingWorksRequest lists new works of users followed by the logged-in user.
func (a *API) FollowingWorksRequest() RequestBuilder {
	return a.endpointRequest(followingWorksEndpoint, nil)
}

// FollowingRequest lists users followed by the logged-in user.
func (a *API) FollowingRequest() RequestBuilder {
	return a.endpointRequest(followingEndpoint, nil)
}

// FollowingAddRequest follows the user.
func (a *API) FollowingAddRequest(userID int) RequestBuilder {
	return a.endpointRequest(followingAddEndpoint, nil, P("target_user_id", userID))
}

// FollowingRemoveRequest unfollows the users.
func (a *API) FollowingRemoveRequest(userIDs ...int) RequestBuilder {
	return a.endpointRequest(followingRemoveEndpoint, nil, Param{Key: "delete_ids", Value: joinIDs(userIDs)})
}

// UserWorksRequest lists works of the user.
func (a *API) UserWorksRequest(userID int) RequestBuilder {
	return a.endpointRequest(userWorksEndpoint, map[string]string{"id": cast.ToString(userID)})
}

// UserFavoriteWorksRequest lists works bookmarked by the user.
func (a *API) UserFavoriteWorksRequest(userID int) RequestBuilder {
	return a.endpointRequest(userFavoriteWorksEndpoint, map[string]string{"id": cast.ToString(userID)})
}

// UserFeedRequest returns the activity feed of the user.
func (a *API) UserFeedRequest(userID int) RequestBuilder {
	return a.endpointRequest(userFeedEndpoint, map[string]string{"id": cast.ToString(userID)})
}

// UserFollowingRequest lists users followed by the user.
func (a *API) UserFollowingRequest(userID int) RequestBuilder {
	return a.endpointRequest(userFollowingEndpoint, map[string]string{"id": cast.ToString(userID)})
}

// RankingRequest returns the ranking, use RankingMode and Date to select a different one than today's daily.
func (a *API) RankingRequest(rankingType RankingType) RequestBuilder {
	return a.endpointRequest(rankingEndpoint, map[string]string{"type": rankingType.String()})
}

// SearchWorksRequest searches works by the query.
func (a *API) SearchWorksRequest(query string) RequestBuilder {
	return a.endpointRequest(searchWorksEndpoint, nil, Param{Key: "q", Value: query})
}

// LatestWorksRequest lists the newest works of all users.
func (a *API) LatestWorksRequest() RequestBuilder {
	return a.endpointRequest(latestWorksEndpoint, nil)
}

func (a *API) endpointRequest(e endpoint, pathParams map[string]string, extra ...Param) RequestBuilder {
	path := e.path
	for k, v := range pathParams {
		path = strings.ReplaceAll(path, "{"+k+"}", url.PathEscape(v))
	}
	b := a.NewRequestBuilder(e.method, path, e.defaults...)
	b.params = b.params.Extend(extra...)
	return b
}

// joinIDs joins the ids by comma, in the given order and without deduplication.
func joinIDs(ids []int) string {
	items := make([]string, len(ids))
	for i, id := range ids {
		items[i] = cast.ToString(id)
	}
	return strings.Join(items, ",")
}
