package rank

// 打分常量。所有阈值、指数与上下限均为打分契约的一部分，调参时只改这里。
const (
	// 年龄
	MaxAgeHours        = 48.0
	AgeCapHours        = 2 * MaxAgeHours
	FreshHours         = 6.0
	SuperFreshHours    = 2.0
	ExpiredMinEngage   = 10
	CommunityFreshHour = 12.0
	CommunityScore     = 0.001

	// 时间衰减
	DecaySuperFreshBase  = 2.2
	DecaySuperFreshSlope = 0.15
	DecayFreshBase       = 1.9
	DecayFreshSlope      = 0.2
	DecayShortBase       = 1.1
	DecayShortRate       = 0.08
	DecayShortHours      = 12.0
	DecayMediumBase      = 0.65
	DecayMediumRate      = 0.06
	DecayMediumHours     = 24.0
	DecayLongBase        = 0.35
	DecayLongRate        = 0.08
	DecayTailBase        = 0.12
	DecayTailRate        = 0.1

	// 基础分权重
	WeightLikes   = 2.5
	WeightReposts = 2.0
	WeightReplies = 1.2
	WeightQuotes  = 1.5

	// 互动质量
	QualityFloor          = 0.05
	QualityRepostShare    = 0.15
	QualityRepostBoost    = 1.5
	QualityReplyShare     = 0.12
	QualityReplyBoost     = 1.4
	QualityQuoteShare     = 0.08
	QualityQuoteBoost     = 1.35
	QualityLikeShare      = 0.95
	QualityLikeMinWeight  = 10.0
	QualityLikeOnlyFactor = 0.7
	QualityTypesBase      = 0.7
	QualityTypesStep      = 0.15
	QualityRatioedReplies = 1.5
	QualityRatioedLikes   = 10
	QualityRatioedFactor  = 0.5

	// 传播力
	ViralRepostWeight  = 3.0
	ViralReplyWeight   = 2.0
	ViralMinAge        = 0.05
	ViralThreshold     = 100.0
	ViralMidThreshold  = 50.0
	ViralLowThreshold  = 20.0
	ViralTopBase       = 2.0
	ViralTopLog        = 0.5
	ViralMidBase       = 1.4
	ViralMidSlope      = 0.6
	ViralLowBase       = 1.0
	ViralLowSlope      = 0.4
	VelocityHigh       = 20.0
	VelocityHighBase   = 1.5
	VelocityHighLog    = 0.3
	VelocityMid        = 10.0
	VelocityMidBase    = 1.2
	VelocityMidLog     = 0.25
	MomentumSpike      = 15.0
	MomentumSpikeHours = 3.0
	MomentumSpikeBoost = 1.4
	VelocitySpike      = 5.0
	VelocitySpikeHours = 1.0
	VelocitySpikeBoost = 1.3
	ReachBonusLog      = 0.02
	ReachBonusCap      = 0.25
	ViralMin           = 0.01
	ViralMax           = 20.0

	// 媒体
	MediaBoostBase  = 1.25
	MediaFreshBoost = 1.15
	MediaQuoteBoost = 1.12

	// 重复惩罚
	AuthorRepeatBase   = 0.7
	AuthorRepeatFloor  = 0.12
	ContentRepeatBase  = 0.45
	ContentRepeatFloor = 0.05

	// 位置惩罚
	PositionSlots           = 5
	PositionAuthorStrength  = 0.4
	PositionContentStrength = 0.5

	// 讨论度
	DiscussionWeight = 0.7
	DiscussionCap    = 0.5

	// 新鲜感
	NoveltyUnseenBonus  = 0.12
	NoveltyStalePenalty = 0.05
	NoveltyStaleHours   = 24.0
	NoveltyMin          = 0.7
	NoveltyMax          = 1.5

	// 多样性
	DiversityAuthorRepeats  = 2
	DiversityContentRepeats = 1
	DiversityBase           = 0.6
	DiversitySpan           = 0.35

	// 认证
	GoldBase            = 1.15
	GoldEngageLog       = 0.05
	GoldFollowerLog     = 0.02
	GoldCap             = 1.35
	VerifiedBase        = 1.08
	VerifiedEngageLog   = 0.03
	VerifiedFollowerLog = 0.01
	VerifiedCap         = 1.18
	VerifyRepeatStep    = 1.2
	VerifyRepeatFloor   = 0.5
	// 距上次看到的小时数分界：< Recent、< Mid、其余
	VerifySeenRecentHours = 24.0
	VerifySeenMidHours    = 48.0

	// 人工加推
	PromotionMaxBoost   = 10.0
	PromotionFreshHours = 24.0
	PromotionFreshScale = 4.0
	PromotionStaleScale = 2.5

	// 年龄多样性
	AgeDivUltraFreshHours = 0.25
	AgeDivUltraFresh      = 0.9
	AgeDivMidHours        = 30.0
	AgeDivDensityWeight   = 0.02
	AgeDivDensityCap      = 0.35
	AgeDivOldMinEngage    = 20
	AgeDivOldFactor       = 0.9
	AgeDivMin             = 0.85
	AgeDivMax             = 1.35

	// 低触达
	LowReachMinFollowers = 500
	LowReachRatio        = 0.002

	// 额外重复衰减
	ExtraAuthorRepeats  = 3
	ExtraAuthorDecay    = 0.85
	ExtraContentRepeats = 2
	ExtraContentDecay   = 0.75

	// 可见窗口
	VisibleWindow = 10
)

// 已看惩罚阶梯：距上次看到的小时数上限 → 乘数。
var seenSteps = []struct {
	below  float64
	factor float64
}{
	{0.5, 0.02},
	{2, 0.05},
	{6, 0.10},
	{12, 0.18},
	{24, 0.32},
	{48, 0.50},
	{96, 0.68},
	{168, 0.82},
}

const seenTailFactor = 0.92

// 时效调整阶梯。
var recencySteps = []struct {
	below  float64
	factor float64
}{
	{0.25, 1.35},
	{1, 1.25},
	{3, 1.15},
	{6, 1.05},
}

// 超过 24h 后的时效下沉阶梯，按 above 降序匹配。
var recencyDecline = []struct {
	above  float64
	factor float64
}{
	{48, 0.5},
	{36, 0.65},
	{24, 0.75},
}

// 认证加成的已看折扣。
type seenDiscounts struct {
	recent, mid, old float64
}

var (
	goldSeenDiscounts     = seenDiscounts{recent: 0.4, mid: 0.7, old: 0.85}
	verifiedSeenDiscounts = seenDiscounts{recent: 0.5, mid: 0.75, old: 0.9}
)
