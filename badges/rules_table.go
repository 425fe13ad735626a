package badges

import (
	"github.com/fatihyuksel3109/mathlearn/models"
	"github.com/fatihyuksel3109/mathlearn/periods"
)

// KnownLevels is the number of adventure levels shipped in the client.
const KnownLevels = 6

// SpeedRecordCap is the absolute bound for a level speed record, in seconds.
const SpeedRecordCap = 30

func ruleTable() map[string]Rule {
	return map[string]Rule{
		"ballon_ustasi":     SessionCorrect(models.GameTypeBalloonPop, 10),
		"hizli_refleks":     FastCorrect(3, 10),
		"mukemmel_seri":     CorrectStreak(10),
		"toplama_kahramani": OperationCorrect(50, OpAddition...),
		"carpma_ustasi":     OperationCorrect(30, OpMultiplication...),
		"gunun_sampiyonu":   PeriodXP(periods.Daily, 300),
		"balon_efsanesi":    TotalCorrect(100),

		"simsek_refleks": FastCorrect(3, 5),
		"hiz_canavari":   FastCorrect(5, 15),
		"zaman_ustasi":   FastCorrect(10, 30),
		"ultra_hizli":    FastCorrect(20, 60),
		"flas_sampiyonu": FastCorrect(50, 120),

		"mukemmel_baslangic": CorrectStreak(5),
		"dogruluk_kahramani": CorrectStreak(20),
		"mukemmel_usta":      CorrectStreak(50),
		"sifir_hata":         PerfectBlock(20),
		"kusursuz":           PerfectBlock(50),

		"toplama_yeni_baslayan": OperationCorrect(50, OpAddition...),
		"toplama_uzmani":        OperationCorrect(100, OpAddition...),
		"toplama_efsanesi":      OperationCorrect(500, OpAddition...),
		"cikarma_yeni_baslayan": OperationCorrect(50, OpSubtraction...),
		"cikarma_uzmani":        OperationCorrect(100, OpSubtraction...),
		"cikarma_efsanesi":      OperationCorrect(500, OpSubtraction...),
		"carpma_yeni_baslayan":  OperationCorrect(30, OpMultiplication...),
		"carpma_uzmani":         OperationCorrect(100, OpMultiplication...),
		"carpma_efsanesi":       OperationCorrect(300, OpMultiplication...),
		"bolme_yeni_baslayan":   OperationCorrect(25, OpDivision...),
		"bolme_uzmani":          OperationCorrect(75, OpDivision...),
		"bolme_efsanesi":        OperationCorrect(200, OpDivision...),

		"macera_baslangic":      CompletedLevels(1),
		"macera_kesifci":        CompletedLevels(3),
		"macera_efsanesi":       CompletedLevels(KnownLevels),
		"macera_ustasi":         LevelsMastered(KnownLevels),
		"seviye_hiz_rekortmeni": LevelSpeedRecord(SpeedRecordCap),
		"butun_seviyeleri_ac":   LevelsUnlocked(KnownLevels),

		"uc_gunluk_seri":    StreakAtLeast(3),
		"haftalik_kahraman": StreakAtLeast(7),
		"iki_hafta_ustasi":  StreakAtLeast(14),
		"ayin_sampiyonu":    StreakAtLeast(30),
		"yuz_gun_efsanesi":  StreakAtLeast(100),

		"balon_yeni_baslayan":       GameTypeCorrect(models.GameTypeBalloonPop, 5),
		"balon_uzmani":              GameTypeCorrect(models.GameTypeBalloonPop, 50),
		"balon_efsanesi_oyun":       GameTypeCorrect(models.GameTypeBalloonPop, 200),
		"hizli_yaris_yeni_baslayan": GameTypeCorrect(models.GameTypeQuickRace, 10),
		"hizli_yaris_uzmani":        GameTypeCorrect(models.GameTypeQuickRace, 100),
		"hizli_yaris_sampiyonu":     GameTypeCorrect(models.GameTypeQuickRace, 500),
		"kesir_ustasi":              GameTypeCorrect(models.GameTypeFractions, 20),
		"kesir_buyucusu":            GameTypeCorrect(models.GameTypeFractions, 100),
		"geometri_uzmani":           GameTypeCorrect(models.GameTypeGeometry, 20),
		"geometri_dahisi":           GameTypeCorrect(models.GameTypeGeometry, 100),

		"ilk_adimlar":        XPAtLeast(100),
		"ogrenci_yildiz":     XPAtLeast(500),
		"ogrenci_kahramani":  XPAtLeast(1000),
		"matematik_ustasi":   XPAtLeast(2500),
		"matematik_efsanesi": XPAtLeast(5000),
		"ustun_ogrenci":      XPAtLeast(10000),
		"matematik_dehasi":   XPAtLeast(25000),

		"hafta_savasci":      WeeklyActiveDays(5),
		"gunluk_sampiyon":    PeriodXP(periods.Daily, 500),
		"haftalik_usta":      PeriodXP(periods.Weekly, 2000),
		"hafta_sonu_savasci": WeekendPlayer(),

		"gece_yarisi_oyuncu": HourBetween(0, 6),
		"erken_kusu":         HourBetween(5, 6),
		"mukemmel_hafta":     PerfectWeek(),
		"koleksiyoncu":       HeldBadges(25),
	}
}
