package page

import (
	"io"
	"strings"

	"landing-v2/internal/domain"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// RenderLanding writes the landing page for snap
func RenderLanding(w io.Writer, snap domain.PageSnapshot) error {
	return LandingPage(snap).Render(w)
}

// RenderThanks writes the confirmation page
func RenderThanks(w io.Writer) error {
	return ThanksPage().Render(w)
}

func LandingPage(snap domain.PageSnapshot) g.Node {
	return layout("無料ニュースレター登録",
		[]g.Node{Data("gtm-id", snap.GTMID), Data("fb-pixel-id", snap.FBPixelID)},
		hero(snap),
		benefits(snap),
		countdown(snap.Countdown),
		subscriptionForm(snap),
		fixedFooter(snap),
		Script(Src("/js/main.js"), Defer()),
	)
}

func ThanksPage() g.Node {
	return layout("登録ありがとうございます", nil,
		Main(
			Class("thanks"),
			H1(g.Text("ご登録ありがとうございます")),
			P(g.Text("確認メールをお送りしました。受信ボックスをご確認ください。")),
			A(Href("/"), g.Text("トップへ戻る")),
		),
	)
}

func layout(title string, bodyAttrs []g.Node, children ...g.Node) g.Node {
	return Doctype(
		HTML(
			Lang("ja"),
			Head(
				Meta(Charset("utf-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
				TitleEl(g.Text(title)),
				Link(Rel("stylesheet"), Href("/css/style.css")),
			),
			Body(g.Group(bodyAttrs), g.Group(children)),
		),
	)
}

func hero(snap domain.PageSnapshot) g.Node {
	return Section(
		ID("hero"),
		Class("hero"),
		H1(g.Text("毎週届く、実践マーケティングのヒント")),
		P(g.Text("登録は無料。いつでも解除できます。")),
		ctaButton(snap, "hero"),
	)
}

func benefits(snap domain.PageSnapshot) g.Node {
	items := []string{
		"最新の広告運用ノウハウ",
		"成功事例の詳しい解説",
		"登録者限定の特典資料",
	}

	return Section(
		ID("benefits"),
		Class("benefits"),
		Ul(g.Group(g.Map(items, func(item string) g.Node {
			return Li(g.Text(item))
		}))),
		ctaButton(snap, "benefits"),
	)
}

func countdown(d domain.CountdownDisplay) g.Node {
	return Div(
		Class("countdown"),
		Span(ID(domain.ElementHours), g.Text(d.Hours)),
		g.Text(":"),
		Span(ID(domain.ElementMinutes), g.Text(d.Minutes)),
		g.Text(":"),
		Span(ID(domain.ElementSeconds), g.Text(d.Seconds)),
	)
}

func subscriptionForm(snap domain.PageSnapshot) g.Node {
	action := "/subscribe"
	if snap.Query != "" {
		action += "?" + snap.Query
	}

	return Section(
		ID(domain.ElementFormSection),
		Class("form-section"),
		Form(
			ID(domain.ElementForm),
			Action(action),
			Method("post"),
			g.Attr("novalidate"),

			Label(For(domain.ElementEmail), g.Text("メールアドレス")),
			Input(
				ID(domain.ElementEmail),
				Name(domain.ElementEmail),
				Type("email"),
				Value(snap.Values.Email),
				fieldClass(snap, domain.FieldEmail),
			),
			errorElement(snap, domain.FieldEmail),

			Label(For(domain.ElementName), g.Text("お名前（任意）")),
			Input(
				ID(domain.ElementName),
				Name(domain.ElementName),
				Type("text"),
				Value(snap.Values.Name),
			),

			Label(
				Input(
					ID(domain.ElementConsent),
					Name(domain.ElementConsent),
					Type("checkbox"),
					Value("on"),
					g.If(snap.Values.ConsentGiven, Checked()),
					fieldClass(snap, domain.FieldConsent),
				),
				g.Text("プライバシーポリシーに同意する"),
			),
			errorElement(snap, domain.FieldConsent),

			submitButton(snap.Submit),
		),
	)
}

func submitButton(c domain.SubmitControl) g.Node {
	label := c.Label
	if label == "" {
		label = domain.DefaultSubmitLabel
	}
	return Button(
		ID(domain.ElementSubmitButton),
		Type("submit"),
		g.If(c.Loading, Class(domain.ClassLoading)),
		g.If(c.Disabled, Disabled()),
		g.Text(label),
	)
}

func fixedFooter(snap domain.PageSnapshot) g.Node {
	classes := []string{"fixed-footer"}
	if snap.FooterVisible {
		classes = append(classes, domain.ClassVisible)
	}
	return Div(
		ID(domain.ElementFixedFooter),
		Class(strings.Join(classes, " ")),
		ctaButton(snap, "footer"),
	)
}

func ctaButton(snap domain.PageSnapshot, location string) g.Node {
	for _, b := range snap.CTAButtons {
		if b.Location != location {
			continue
		}
		return A(
			Href(b.Href),
			Class("cta-button"),
			Data("event", domain.CTAEventAttribute),
			Data("location", b.Location),
			g.Text(b.Label),
		)
	}
	return nil
}

func fieldClass(snap domain.PageSnapshot, field string) g.Node {
	_, ok := snap.FieldErrors[field]
	return g.If(ok, Class(domain.ClassError))
}

func errorElement(snap domain.PageSnapshot, field string) g.Node {
	return Span(
		ID(domain.ErrorElementID(field)),
		Class("error-message"),
		g.Text(snap.FieldErrors[field]),
	)
}
