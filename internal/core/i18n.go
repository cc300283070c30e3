// AngelaMos | 2026
// i18n.go

package core

import (
	"fmt"
	"sync"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/fa"
	ut "github.com/go-playground/universal-translator"
)

const (
	LocaleEnglish = "en"
	LocalePersian = "fa"
)

var messages = map[string]map[string]string{
	LocaleEnglish: {
		"error.not_found":     "{0} not found",
		"error.unauthorized":  "please sign in to your account first",
		"error.forbidden":     "access denied",
		"error.token_expired": "session has expired",
		"error.token_revoked": "session has been revoked",
		"error.token_invalid": "invalid session token",
		"error.token_reuse":   "token reuse detected, all sessions revoked",
		"error.validation":    "request validation failed",
		"error.internal":      "something went wrong, please try again",
		"error.invalid_body":  "invalid request body",
		"error.invalid_id":    "{0} must be a valid id",
		"error.rate_limited":  "too many requests, retry after {0} seconds",

		"account.inactive": "your account is inactive, please contact support",

		"otp.sent":                "a verification code was sent to your email",
		"otp.already_sent":        "a verification code was already sent, check your inbox",
		"otp.rate_limited":        "too many email requests, please try again in {0} hour(s)",
		"otp.send_failed":         "failed to send the verification email",
		"otp.invalid":             "the code is invalid or has expired",
		"otp.verification_failed": "verification failed, please try again",

		"oauth.failed":           "sign-in with the provider failed",
		"oauth.unknown_provider": "unknown sign-in provider",

		"comment.created_live":      "your comment has been published",
		"comment.created_pending":   "your comment was submitted and will appear after review",
		"comment.too_short":         "comment must be at least {0} characters",
		"comment.too_long":          "comment must be at most {0} characters",
		"comment.inappropriate":     "the comment contains inappropriate content",
		"comment.article_not_found": "the article was not found",
		"comment.parent_not_found":  "the comment you are replying to was not found",
		"comment.parent_mismatch":   "a reply must belong to the same article as its parent",
		"comment.max_depth":         "replies cannot be nested deeper than {0} levels",
		"comment.approved":          "comment approved",
		"comment.deleted":           "{0} comment(s) deleted",
		"comment.delete_forbidden":  "you can only delete your own comments",
		"comment.list_forbidden":    "you can only list your own comments",

		"article.slug_taken":        "an article with this slug already exists",
		"article.forbidden":         "you are not allowed to manage articles",
		"article.forbidden_owner":   "you can only change your own articles",
		"article.deleted":           "article deleted",
		"category.slug_taken":       "a category with this slug already exists",
		"category.forbidden":        "you are not allowed to manage categories",
		"category.protected":        "the fallback category cannot be deleted",
		"category.deleted":          "{0} category(ies) deleted",
		"category.uncategorized":    "Uncategorized",
		"user.self_modify":          "you cannot change your own role or status",
		"user.invalid_role":         "invalid role",
		"mail.otp_subject":          "Verification code",
		"mail.otp_heading":          "Your verification code",
		"mail.otp_validity":         "This code is valid for {0} minutes.",
		"mail.otp_footer":           "This email was sent automatically, please do not reply.",
		"resource.user":             "user",
		"resource.article":          "article",
		"resource.category":         "category",
		"resource.comment":          "comment",
		"resource.session":          "session",
	},
	LocalePersian: {
		"error.not_found":     "{0} یافت نشد",
		"error.unauthorized":  "لطفا ابتدا وارد حساب کاربری خود شوید",
		"error.forbidden":     "دسترسی غیرمجاز",
		"error.token_expired": "نشست شما منقضی شده است",
		"error.token_revoked": "نشست شما باطل شده است",
		"error.token_invalid": "توکن نشست نامعتبر است",
		"error.token_reuse":   "استفاده مجدد از توکن شناسایی شد، همه نشست‌ها باطل شدند",
		"error.validation":    "اطلاعات ارسالی نامعتبر است",
		"error.internal":      "خطایی رخ داد، لطفا دوباره تلاش کنید",
		"error.invalid_body":  "بدنه درخواست نامعتبر است",
		"error.invalid_id":    "{0} باید یک شناسه معتبر باشد",
		"error.rate_limited":  "تعداد درخواست‌های شما بیش از حد مجاز است، {0} ثانیه دیگر تلاش کنید",

		"account.inactive": "حساب کاربری شما غیرفعال است. لطفا با پشتیبانی تماس بگیرید",

		"otp.sent":                "کد تایید به ایمیل شما ارسال شد",
		"otp.already_sent":        "کد تایید قبلاً ارسال شده است، صندوق ایمیل خود را بررسی کنید",
		"otp.rate_limited":        "تعداد درخواست‌های ارسال ایمیل بیش از حد مجاز است. لطفاً {0} ساعت دیگر تلاش کنید.",
		"otp.send_failed":         "خطا در ارسال ایمیل",
		"otp.invalid":             "کد وارد شده نامعتبر یا منقضی شده است.",
		"otp.verification_failed": "خطا در تایید کد، لطفا دوباره تلاش کنید",

		"oauth.failed":           "ورود با سرویس‌دهنده ناموفق بود",
		"oauth.unknown_provider": "سرویس‌دهنده ورود ناشناخته است",

		"comment.created_live":      "دیدگاه شما منتشر شد",
		"comment.created_pending":   "دیدگاه شما ثبت شد و پس از تایید نمایش داده می‌شود",
		"comment.too_short":         "دیدگاه باید حداقل {0} کاراکتر باشد",
		"comment.too_long":          "دیدگاه نباید بیشتر از {0} کاراکتر باشد",
		"comment.inappropriate":     "محتوای نامناسب",
		"comment.article_not_found": "مقاله مورد نظر یافت نشد",
		"comment.parent_not_found":  "دیدگاهی که به آن پاسخ می‌دهید یافت نشد",
		"comment.parent_mismatch":   "پاسخ باید متعلق به همان مقاله باشد",
		"comment.max_depth":         "پاسخ‌ها نمی‌توانند بیش از {0} سطح تو در تو باشند",
		"comment.approved":          "دیدگاه تایید شد",
		"comment.deleted":           "{0} دیدگاه حذف شد",
		"comment.delete_forbidden":  "شما فقط می‌توانید دیدگاه‌های خود را حذف کنید",
		"comment.list_forbidden":    "شما فقط می‌توانید دیدگاه‌های خود را مشاهده کنید",

		"article.slug_taken":        "مقاله‌ای با این اسلاگ قبلاً وجود دارد",
		"article.forbidden":         "شما مجوز مدیریت مقالات را ندارید",
		"article.forbidden_owner":   "شما فقط می‌توانید مقالات خود را تغییر دهید",
		"article.deleted":           "مقاله حذف شد",
		"category.slug_taken":       "دسته‌بندی با این اسلاگ قبلاً وجود دارد",
		"category.forbidden":        "شما مجوز مدیریت دسته‌بندی‌ها را ندارید",
		"category.protected":        "دسته‌بندی پیش‌فرض قابل حذف نیست",
		"category.deleted":          "{0} دسته‌بندی حذف شد",
		"category.uncategorized":    "بدون دسته‌بندی",
		"user.self_modify":          "شما نمی‌توانید نقش یا وضعیت خود را تغییر دهید",
		"user.invalid_role":         "نقش نامعتبر است",
		"mail.otp_subject":          "کد تایید",
		"mail.otp_heading":          "کد تایید شما",
		"mail.otp_validity":         "این کد تا {0} دقیقه معتبر است.",
		"mail.otp_footer":           "این ایمیل به صورت خودکار ارسال شده است. لطفاً به آن پاسخ ندهید.",
		"resource.user":             "کاربر",
		"resource.article":          "مقاله",
		"resource.category":         "دسته‌بندی",
		"resource.comment":          "دیدگاه",
		"resource.session":          "نشست",
	},
}

var (
	i18nMu     sync.RWMutex
	universal  *ut.UniversalTranslator
	translator ut.Translator
	fallback   ut.Translator
	locale     = LocaleEnglish
)

func init() {
	if err := SetLocale(LocaleEnglish); err != nil {
		panic(fmt.Sprintf("i18n: %v", err))
	}
}

// SetLocale switches the process-wide message locale. Validator messages
// follow the same locale.
func SetLocale(name string) error {
	i18nMu.Lock()
	defer i18nMu.Unlock()

	if universal == nil {
		uni, err := newUniversalTranslator()
		if err != nil {
			return err
		}
		universal = uni
		fallback, _ = universal.GetTranslator(LocaleEnglish)
	}

	trans, found := universal.FindTranslator(name)
	if !found {
		return fmt.Errorf("unsupported locale %q", name)
	}

	if err := registerValidationTranslations(trans); err != nil {
		return fmt.Errorf("register validation translations: %w", err)
	}

	translator = trans
	locale = trans.Locale()
	return nil
}

func Locale() string {
	i18nMu.RLock()
	defer i18nMu.RUnlock()
	return locale
}

// T translates key into the active locale, falling back to English and then
// to the key itself.
func T(key string, params ...string) string {
	i18nMu.RLock()
	trans, fb := translator, fallback
	i18nMu.RUnlock()

	if trans != nil {
		if msg, err := trans.T(key, params...); err == nil {
			return msg
		}
	}
	if fb != nil {
		if msg, err := fb.T(key, params...); err == nil {
			return msg
		}
	}
	return key
}

func currentTranslator() ut.Translator {
	i18nMu.RLock()
	defer i18nMu.RUnlock()
	return translator
}

func newUniversalTranslator() (*ut.UniversalTranslator, error) {
	supported := map[string]locales.Translator{
		LocaleEnglish: en.New(),
		LocalePersian: fa.New(),
	}

	uni := ut.New(supported[LocaleEnglish], supported[LocaleEnglish], supported[LocalePersian])

	for name := range supported {
		trans, _ := uni.GetTranslator(name)
		for key, text := range messages[name] {
			if err := trans.Add(key, text, false); err != nil {
				return nil, fmt.Errorf("add %s translation %q: %w", name, key, err)
			}
		}
	}

	return uni, nil
}
