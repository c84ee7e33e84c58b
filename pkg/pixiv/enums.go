package pixiv

// Publicity of a favorite work or a followed user.
type Publicity string

const (
	PublicityPublic  Publicity = "public"
	PublicityPrivate Publicity = "private"
)

func (v Publicity) String() string {
	return string(v)
}

// RankingType selects the ranking list, it is a part of the ranking endpoint path.
type RankingType string

const (
	RankingTypeAll    RankingType = "all"
	RankingTypeIllust RankingType = "illust"
	RankingTypeManga  RankingType = "manga"
	RankingTypeUgoira RankingType = "ugoira"
)

func (v RankingType) String() string {
	return string(v)
}

// RankingMode selects the ranking period and audience.
type RankingMode string

const (
	RankingModeDaily     RankingMode = "daily"
	RankingModeWeekly    RankingMode = "weekly"
	RankingModeMonthly   RankingMode = "monthly"
	RankingModeRookie    RankingMode = "rookie"
	RankingModeOriginal  RankingMode = "original"
	RankingModeMale      RankingMode = "male"
	RankingModeFemale    RankingMode = "female"
	RankingModeDailyR18  RankingMode = "daily_r18"
	RankingModeWeeklyR18 RankingMode = "weekly_r18"
	RankingModeMaleR18   RankingMode = "male_r18"
	RankingModeFemaleR18 RankingMode = "female_r18"
	RankingModeR18G      RankingMode = "r18g"
)

func (v RankingMode) String() string {
	return string(v)
}

type SearchPeriod string

const (
	SearchPeriodAll   SearchPeriod = "all"
	SearchPeriodDay   SearchPeriod = "day"
	SearchPeriodWeek  SearchPeriod = "week"
	SearchPeriodMonth SearchPeriod = "month"
)

func (v SearchPeriod) String() string {
	return string(v)
}

// SearchMode selects which part of a work is matched by the search query.
type SearchMode string

const (
	SearchModeText     SearchMode = "text"
	SearchModeTag      SearchMode = "tag"
	SearchModeExactTag SearchMode = "exact_tag"
	SearchModeCaption  SearchMode = "caption"
)

func (v SearchMode) String() string {
	return string(v)
}

type SearchOrder string

const (
	SearchOrderDesc SearchOrder = "desc"
	SearchOrderAsc  SearchOrder = "asc"
)

func (v SearchOrder) String() string {
	return string(v)
}
