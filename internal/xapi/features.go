package xapi

// defaultFeatures is the capability descriptor the upstream requires on every
// GraphQL call. It is echoed verbatim and never interpreted here; the flags
// are whatever the X web client sent at capture time.
//
// Captured from the web client on 2026-07-14. The upstream rotates this set
// without notice; a wave of 400 responses usually means it has gone stale.
var defaultFeatures = map[string]bool{
	"rweb_video_screen_enabled":                                               false,
	"profile_label_improvements_pcf_label_in_post_enabled":                    true,
	"responsive_web_profile_redirect_enabled":                                 false,
	"rweb_tipjar_consumption_enabled":                                         false,
	"verified_phone_label_enabled":                                            false,
	"creator_subscriptions_tweet_preview_api_enabled":                         true,
	"responsive_web_graphql_exclude_directive_enabled":                        true,
	"responsive_web_graphql_skip_user_profile_image_extensions_enabled":       false,
	"responsive_web_graphql_timeline_navigation_enabled":                      true,
	"hidden_profile_subscriptions_enabled":                                    true,
	"profile_foundations_tweet_stats_enabled":                                 true,
	"subscriptions_verification_info_is_identity_verified_enabled":            true,
	"subscriptions_verification_info_verified_since_enabled":                  true,
	"highlights_tweets_tab_ui_enabled":                                        true,
	"c9s_tweet_anatomy_moderator_badge_enabled":                               true,
	"tweet_with_visibility_results_prefer_gql_limited_actions_policy_enabled": true,
	"responsive_web_twitter_article_tweet_consumption_enabled":                true,
	"subscriptions_feature_can_gift_premium":                                  true,
	"responsive_web_home_pinned_timelines_enabled":                            true,
	"long_form_notetweets_consumption_enabled":                                true,
	"responsive_web_media_download_video_enabled":                             true,
}
