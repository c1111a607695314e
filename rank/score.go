package rank

import (
	"math"
	"time"

	"github.com/rushteam/feedrank/core"
)

// Jitter 描述随机扰动块：分量 = Offset + random·Span，
// 乘数 = 1 + 分量·Multiplier，加性项 = 分量·Additive。
type Jitter struct {
	Offset     float64 `json:"offset" yaml:"offset"`
	Span       float64 `json:"span" yaml:"span"`
	Multiplier float64 `json:"multiplier" yaml:"multiplier"`
	Additive   float64 `json:"additive" yaml:"additive"`
}

// Model 是启发式打分模型。除随机扰动外的常量均固定在 constants.go。
type Model struct {
	// Fresh 用于普通批次；AllSeen 用于整批都已看过的陈旧 feed，扰动幅度更大。
	Fresh   Jitter `json:"fresh" yaml:"fresh"`
	AllSeen Jitter `json:"all_seen" yaml:"all_seen"`

	// RepeatAmplify 在作者/内容重复较多时放大扰动乘数：×(1 + RepeatAmplify·random)。
	RepeatAmplify float64 `json:"repeat_amplify" yaml:"repeat_amplify"`
}

// DefaultModel 返回规范常量集。
func DefaultModel() Model {
	return Model{
		Fresh:         Jitter{Offset: 0.02, Span: 0.04, Multiplier: 0.08, Additive: 1},
		AllSeen:       Jitter{Offset: 0.5, Span: 1.8, Multiplier: 0.35, Additive: 2.5},
		RepeatAmplify: 0.5,
	}
}

var defaultModel = DefaultModel()

// Score 使用默认模型为候选打分，结果恒为有限值且 ≥ 0。
func Score(c *core.Candidate, position int, now time.Time) float64 {
	return defaultModel.Score(c, position, now)
}

// signals 是经过截断后的打分输入。
type signals struct {
	age                             float64
	likes, reposts, replies, quotes float64
	engagement                      float64
	hoursSeen                       float64
	authorRepeats, contentRepeats   int
	novelty, random                 float64
	followers                       float64
	promotion                       float64
	hasMedia, community, allSeen    bool
	verified, gold                  bool
}

func clampCount(v int) float64 {
	if v < 0 {
		return 0
	}
	return float64(v)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func sanitize(c *core.Candidate, now time.Time) signals {
	s := signals{
		age:            AgeHours(c.CreatedAt, now),
		likes:          clampCount(c.Likes),
		reposts:        clampCount(c.Reposts),
		replies:        clampCount(c.Replies),
		quotes:         clampCount(c.Quotes),
		hoursSeen:      c.HoursSinceSeen,
		authorRepeats:  max(c.AuthorRepeats, 0),
		contentRepeats: max(c.ContentRepeats, 0),
		novelty:        c.NoveltyFactor,
		random:         c.RandomFactor,
		followers:      clampCount(c.FollowerCount),
		promotion:      c.PromotionBoost,
		hasMedia:       c.HasMedia,
		community:      c.CommunityFlagged,
		allSeen:        c.AllSeen,
		verified:       c.Verified,
		gold:           c.Gold,
	}
	s.engagement = s.likes + s.reposts + s.replies + s.quotes
	if !finite(s.hoursSeen) || s.hoursSeen < -1 {
		s.hoursSeen = -1
	}
	if !finite(s.novelty) || s.novelty <= 0 {
		s.novelty = 1
	}
	switch {
	case !finite(s.random):
		s.random = 0
	case s.random < 0:
		s.random = 0
	case s.random > 1:
		s.random = 1
	}
	if !finite(s.promotion) || s.promotion < 0 {
		s.promotion = 0
	}
	s.promotion = math.Min(s.promotion, PromotionMaxBoost)
	return s
}

// Score 计算单个候选在 position 处的分数。纯函数，不修改 c。
func (m Model) Score(c *core.Candidate, position int, now time.Time) float64 {
	if c == nil {
		return 0
	}
	if position < 0 {
		position = 0
	}
	s := sanitize(c, now)

	if s.age > MaxAgeHours && s.engagement < ExpiredMinEngage {
		return 0
	}
	if s.community {
		if s.age < CommunityFreshHour {
			return CommunityScore
		}
		return 0
	}

	seen := s.hoursSeen >= 0
	deficit := LowReachDeficit(s.followers, s.engagement)
	authorPenalty, contentPenalty := RepeatPenalties(s.authorRepeats, s.contentRepeats)

	score := TimeDecay(s.age) *
		BaseScore(s.likes, s.reposts, s.replies, s.quotes) *
		EngagementQuality(s.likes, s.reposts, s.replies, s.quotes) *
		ViralityBoost(s.likes, s.reposts, s.replies, s.quotes, s.age, s.followers) *
		dampBonus(MediaBoost(s.hasMedia, s.age, s.quotes), deficit) *
		SeenPenalty(s.hoursSeen) *
		authorPenalty * contentPenalty *
		PositionPenalty(position, s.authorRepeats, s.contentRepeats) *
		RecencyAdjust(s.age) *
		DiscussionBoost(s.replies, s.likes) *
		NoveltyBoost(s.novelty, seen, s.age) *
		DiversityPenalty(s.authorRepeats, s.contentRepeats, s.random) *
		VerificationBoost(s.verified, s.gold, s.engagement, s.followers, s.hoursSeen, s.authorRepeats) *
		PromotionBoost(s.promotion, s.age)

	mul, add := m.Jitter(s.random, s.allSeen, s.authorRepeats, s.contentRepeats)
	score = score*mul + add
	score *= dampBonus(AgeDiversityBoost(s.age, s.engagement), deficit)
	score *= ExtraRepeatDecay(s.authorRepeats, s.contentRepeats)

	if !finite(score) || score < 0 {
		return 0
	}
	return score
}

// AgeHours 返回帖子年龄（小时），下限 0，上限 AgeCapHours。
func AgeHours(created, now time.Time) float64 {
	h := now.Sub(created).Hours()
	if !finite(h) || h < 0 {
		return 0
	}
	return math.Min(h, AgeCapHours)
}

// TimeDecay 分段时间衰减，超过 MaxAgeHours 后为缓慢的指数长尾（不会到 0）。
func TimeDecay(age float64) float64 {
	switch {
	case age < SuperFreshHours:
		return DecaySuperFreshBase - DecaySuperFreshSlope*age
	case age < FreshHours:
		return DecayFreshBase - DecayFreshSlope*(age-SuperFreshHours)
	case age < DecayShortHours:
		return DecayShortBase * math.Exp(-DecayShortRate*(age-FreshHours))
	case age < DecayMediumHours:
		return DecayMediumBase * math.Exp(-DecayMediumRate*(age-DecayShortHours))
	case age < MaxAgeHours:
		return DecayLongBase * math.Exp(-DecayLongRate*(age-DecayMediumHours))
	default:
		return DecayTailBase * math.Exp(-DecayTailRate*(age-MaxAgeHours))
	}
}

// BaseScore 对四类互动取 log1p 后加权求和。
func BaseScore(likes, reposts, replies, quotes float64) float64 {
	return WeightLikes*math.Log1p(likes) +
		WeightReposts*math.Log1p(reposts) +
		WeightReplies*math.Log1p(replies) +
		WeightQuotes*math.Log1p(quotes)
}

// EngagementQuality 奖励结构健康的互动（转发/回复/引用占比），压制纯点赞与“被回复围攻”。
func EngagementQuality(likes, reposts, replies, quotes float64) float64 {
	total := likes + reposts + replies + quotes
	if total <= 0 {
		return QualityFloor
	}
	q := 1.0
	if reposts/total > QualityRepostShare {
		q *= QualityRepostBoost
	}
	if replies/total > QualityReplyShare {
		q *= QualityReplyBoost
	}
	if quotes/total > QualityQuoteShare {
		q *= QualityQuoteBoost
	}
	weighted := likes + ViralRepostWeight*reposts + ViralReplyWeight*replies + quotes
	if likes/total > QualityLikeShare && weighted > QualityLikeMinWeight {
		q *= QualityLikeOnlyFactor
	}

	types := 0
	for _, v := range [...]float64{likes, reposts, replies, quotes} {
		if v > 0 {
			types++
		}
	}
	q *= QualityTypesBase + QualityTypesStep*float64(types)

	if likes > 0 && replies/likes > QualityRatioedReplies && likes < QualityRatioedLikes {
		q *= QualityRatioedFactor
	}
	return q
}

// ViralityBoost 基于加权互动总量、速度与动量的传播力加成，结果限制在 [ViralMin, ViralMax]。
func ViralityBoost(likes, reposts, replies, quotes, age, followers float64) float64 {
	actions := likes + ViralRepostWeight*reposts + ViralReplyWeight*replies + quotes
	age = math.Max(age, ViralMinAge)
	velocity := actions / age
	momentum := (2*reposts + likes) / (age + 1)

	boost := 1.0
	switch {
	case actions >= ViralThreshold:
		boost = ViralTopBase + ViralTopLog*math.Log1p(actions/ViralThreshold)
	case actions >= ViralMidThreshold:
		boost = ViralMidBase + ViralMidSlope*(actions-ViralMidThreshold)/ViralMidThreshold
	case actions >= ViralLowThreshold:
		boost = ViralLowBase + ViralLowSlope*(actions-ViralLowThreshold)/(ViralMidThreshold-ViralLowThreshold)
	}

	switch {
	case velocity > VelocityHigh:
		boost *= VelocityHighBase + VelocityHighLog*math.Log1p(velocity/VelocityHigh)
	case velocity > VelocityMid:
		boost *= VelocityMidBase + VelocityMidLog*math.Log1p(velocity/VelocityMid)
	}
	if momentum > MomentumSpike && age < MomentumSpikeHours {
		boost *= MomentumSpikeBoost
	}
	if age < VelocitySpikeHours && velocity > VelocitySpike {
		boost *= VelocitySpikeBoost
	}
	if boost > 1 && followers > 0 {
		boost *= 1 + math.Min(ReachBonusLog*math.Log1p(followers), ReachBonusCap)
	}
	if !finite(boost) {
		return ViralMax
	}
	return math.Max(ViralMin, math.Min(boost, ViralMax))
}

// MediaBoost 带媒体的帖子加成。
func MediaBoost(hasMedia bool, age, quotes float64) float64 {
	if !hasMedia {
		return 1
	}
	b := MediaBoostBase
	if age < FreshHours {
		b *= MediaFreshBoost
	}
	if quotes > 0 {
		b *= MediaQuoteBoost
	}
	return b
}

// SeenPenalty 按距上次看到的小时数查表；负数表示未看过，返回 1。
func SeenPenalty(hoursSinceSeen float64) float64 {
	if hoursSinceSeen < 0 || math.IsNaN(hoursSinceSeen) {
		return 1
	}
	for _, step := range seenSteps {
		if hoursSinceSeen < step.below {
			return step.factor
		}
	}
	return seenTailFactor
}

// RepeatPenalties 返回作者与内容重复惩罚。
func RepeatPenalties(authorRepeats, contentRepeats int) (author, content float64) {
	author, content = 1, 1
	if authorRepeats > 0 {
		author = math.Max(AuthorRepeatFloor, math.Pow(AuthorRepeatBase, float64(authorRepeats)))
	}
	if contentRepeats > 0 {
		content = math.Max(ContentRepeatFloor, math.Pow(ContentRepeatBase, float64(contentRepeats)))
	}
	return author, content
}

// PositionPenalty 在 feed 头部位置上压制重复作者/内容，越靠前越强。
func PositionPenalty(position, authorRepeats, contentRepeats int) float64 {
	if position < 0 || position >= PositionSlots {
		return 1
	}
	strength := float64(PositionSlots-position) / PositionSlots
	p := 1.0
	if authorRepeats > 0 {
		p *= 1 - PositionAuthorStrength*strength
	}
	if contentRepeats > 0 {
		p *= 1 - PositionContentStrength*strength
	}
	return p
}

// RecencyAdjust 时效调整：极新内容上浮，超过 24h 的内容逐级下沉。
func RecencyAdjust(age float64) float64 {
	for _, step := range recencySteps {
		if age < step.below {
			return step.factor
		}
	}
	for _, step := range recencyDecline {
		if age > step.above {
			return step.factor
		}
	}
	return 1
}

// DiscussionBoost 回复/点赞比带来的讨论度加成。
func DiscussionBoost(replies, likes float64) float64 {
	if replies <= 0 || likes <= 0 {
		return 1
	}
	return 1 + DiscussionWeight*math.Min(replies/likes, DiscussionCap)
}

// NoveltyBoost 新鲜感：未看过的加分，陈旧内容减分，结果限制在 [NoveltyMin, NoveltyMax]。
func NoveltyBoost(factor float64, seen bool, age float64) float64 {
	n := factor
	if !seen {
		n += NoveltyUnseenBonus
	}
	if age > NoveltyStaleHours {
		n -= NoveltyStalePenalty
	}
	return math.Max(NoveltyMin, math.Min(n, NoveltyMax))
}

// DiversityPenalty 作者或内容重复较多时施加带随机性的惩罚。
func DiversityPenalty(authorRepeats, contentRepeats int, random float64) float64 {
	if authorRepeats > DiversityAuthorRepeats || contentRepeats > DiversityContentRepeats {
		return DiversityBase + DiversitySpan*random
	}
	return 1
}

// VerificationBoost 认证作者加成。近期看过的内容整体打折（可低于 1）；同一作者重复出现时加成衰减。
func VerificationBoost(verified, gold bool, engagement, followers, hoursSinceSeen float64, authorRepeats int) float64 {
	var boost float64
	var discounts seenDiscounts
	switch {
	case gold:
		boost = math.Min(GoldBase+GoldEngageLog*math.Log1p(engagement)+GoldFollowerLog*math.Log1p(followers), GoldCap)
		discounts = goldSeenDiscounts
	case verified:
		boost = math.Min(VerifiedBase+VerifiedEngageLog*math.Log1p(engagement)+VerifiedFollowerLog*math.Log1p(followers), VerifiedCap)
		discounts = verifiedSeenDiscounts
	default:
		return 1
	}

	if hoursSinceSeen >= 0 {
		switch {
		case hoursSinceSeen < VerifySeenRecentHours:
			boost *= discounts.recent
		case hoursSinceSeen < VerifySeenMidHours:
			boost *= discounts.mid
		default:
			boost *= discounts.old
		}
	}
	if authorRepeats > 0 {
		boost = math.Max(VerifyRepeatFloor, boost/(1+VerifyRepeatStep*float64(authorRepeats)))
	}
	return boost
}

// PromotionBoost 人工加推倍率；新内容放大更多，结果不小于 1。
func PromotionBoost(boost, age float64) float64 {
	if boost <= 0 {
		return 1
	}
	if age < PromotionFreshHours {
		return math.Max(1, boost*PromotionFreshScale)
	}
	return math.Max(1, boost*PromotionStaleScale)
}

// AgeDiversityBoost 独立于时间衰减的年龄多样性乘数，让中等年龄且仍有互动的内容有机会上浮。
func AgeDiversityBoost(age, engagement float64) float64 {
	b := 1.0
	switch {
	case age < AgeDivUltraFreshHours:
		b = AgeDivUltraFresh
	case age < FreshHours:
		b = 1
	case age <= AgeDivMidHours:
		b = 1 + math.Min(AgeDivDensityCap, AgeDivDensityWeight*engagement/age)
	}
	if age > MaxAgeHours && engagement < AgeDivOldMinEngage {
		b *= AgeDivOldFactor
	}
	return math.Max(AgeDivMin, math.Min(b, AgeDivMax))
}

// LowReachDeficit 粉丝多但互动率极低时返回 (0,1] 的缺口，否则 0。
func LowReachDeficit(followers, engagement float64) float64 {
	if followers < LowReachMinFollowers {
		return 0
	}
	ratio := engagement / followers
	if ratio >= LowReachRatio {
		return 0
	}
	return 1 - ratio/LowReachRatio
}

// dampBonus 只缩放乘数中大于 1 的加成部分。
func dampBonus(v, deficit float64) float64 {
	if v <= 1 || deficit <= 0 {
		return v
	}
	return 1 + (v-1)*(1-deficit)
}

// ExtraRepeatDecay 重复次数超过小阈值后的额外衰减。
func ExtraRepeatDecay(authorRepeats, contentRepeats int) float64 {
	d := 1.0
	if authorRepeats > ExtraAuthorRepeats {
		d *= math.Pow(ExtraAuthorDecay, float64(authorRepeats-ExtraAuthorRepeats))
	}
	if contentRepeats > ExtraContentRepeats {
		d *= math.Pow(ExtraContentDecay, float64(contentRepeats-ExtraContentRepeats))
	}
	return d
}

// Jitter 返回随机扰动的乘数与加性项。
func (m Model) Jitter(random float64, allSeen bool, authorRepeats, contentRepeats int) (mul, add float64) {
	j := m.Fresh
	if allSeen {
		j = m.AllSeen
	}
	comp := j.Offset + random*j.Span
	mul = 1 + comp*j.Multiplier
	if authorRepeats > ExtraAuthorRepeats || contentRepeats > ExtraContentRepeats {
		mul *= 1 + m.RepeatAmplify*random
	}
	return mul, comp * j.Additive
}
