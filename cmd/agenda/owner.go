package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/wolfman30/agenda/internal/appointments"
	"github.com/wolfman30/agenda/internal/bookingapi"
	"github.com/wolfman30/agenda/internal/premium"
	"github.com/wolfman30/agenda/internal/profile"
	"github.com/wolfman30/agenda/internal/schedule"
	"github.com/wolfman30/agenda/internal/session"
)

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := a.flags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (read from stdin when empty)")
	oauth := fs.Bool("oauth", false, "sign in with the OAuth provider")
	redirect := fs.String("redirect", "", "URL the provider redirected to")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *oauth || *redirect != "" {
		raw := *redirect
		if raw == "" {
			if a.cfg.SupabaseURL == "" {
				return errors.New("SUPABASE_URL is not configured")
			}
			fmt.Fprintln(a.out, "Abra no navegador:")
			fmt.Fprintln(a.out, session.AuthorizeURL(a.cfg.SupabaseURL, a.cfg.OAuthProvider, a.cfg.OAuthRedirectTo))
			fmt.Fprint(a.out, "Cole aqui a URL de retorno: ")
			line, err := readLine(a.in)
			if err != nil {
				return err
			}
			raw = line
		}
		s, err := session.ParseRedirect(raw)
		if err != nil {
			return err
		}
		if err := a.sessions.Adopt(ctx, s); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Conectado como %s\n", s.Email)
		return nil
	}

	if *email == "" {
		return errors.New("-email is required")
	}
	if *password == "" {
		line, err := readLine(a.in)
		if err != nil {
			return err
		}
		*password = line
	}
	s, err := a.sessions.SignIn(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Conectado como %s\n", s.Email)
	return nil
}

func cmdLogout(ctx context.Context, a *app, _ []string) error {
	return a.dashboard().SignOut(ctx)
}

func cmdWhoami(_ context.Context, a *app, _ []string) error {
	s, ok := a.sessions.Current()
	if !ok {
		return session.ErrNoSession
	}
	fmt.Fprintf(a.out, "user_id: %s\nemail:   %s\n", s.UserID, s.Email)
	if !s.ExpiresAt.IsZero() {
		fmt.Fprintf(a.out, "expira:  %s\n", s.ExpiresAt.Local().Format(time.RFC3339))
	}
	return nil
}

// filterFlags are shared by list and export.
type filterFlags struct {
	query    *string
	status   *string
	day      *string
	from     *string
	to       *string
	upcoming *bool
}

func addFilterFlags(a *app, name string) (*filterFlags, *flag.FlagSet) {
	fs := a.flags(name)
	return &filterFlags{
		query:    fs.String("q", "", "search name or email"),
		status:   fs.String("status", "", "pendente, confirmado or cancelado"),
		day:      fs.String("day", "", "weekday name, or all (default today)"),
		from:     fs.String("from", "", "first date YYYY-MM-DD"),
		to:       fs.String("to", "", "last date YYYY-MM-DD"),
		upcoming: fs.Bool("upcoming", false, "hide dates before today"),
	}, fs
}

func (f *filterFlags) criteria(now time.Time) (appointments.Criteria, error) {
	c := appointments.Criteria{Day: appointments.Day(now.Weekday())}
	if *f.upcoming {
		c = appointments.Upcoming(now)
	}
	c.Query = strings.TrimSpace(*f.query)
	if *f.status != "" {
		st, err := appointments.ParseStatus(*f.status)
		if err != nil {
			return c, err
		}
		c.Status = appointments.WithStatus(st)
	}
	switch strings.ToLower(strings.TrimSpace(*f.day)) {
	case "":
	case "all", "todos":
		c.Day = appointments.AllDays
	default:
		wd, err := schedule.ParseWeekday(*f.day)
		if err != nil {
			return c, err
		}
		c.Day = appointments.Day(wd.TimeWeekday())
	}
	for _, bound := range []struct {
		raw  string
		dest **time.Time
	}{{*f.from, &c.From}, {*f.to, &c.To}} {
		if bound.raw == "" {
			continue
		}
		d, err := schedule.ParseDate(bound.raw)
		if err != nil {
			return c, err
		}
		*bound.dest = &d
	}
	return c, nil
}

func printAppointments(w io.Writer, list []appointments.Appointment) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATA\tHORÁRIO\tNOME\tTELEFONE\tEMAIL\tSTATUS")
	for _, ap := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			ap.ID, schedule.FormatDate(ap.Date), schedule.TrimClock(ap.Time), ap.Name, ap.Phone, ap.Email, ap.Status.Label())
	}
	_ = tw.Flush()
	if len(list) == 0 {
		fmt.Fprintln(w, "Nenhum agendamento encontrado.")
	}
}

func cmdList(ctx context.Context, a *app, args []string) error {
	filters, fs := addFilterFlags(a, "list")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c, err := filters.criteria(time.Now())
	if err != nil {
		return err
	}

	d := a.dashboard()
	if err := d.Load(ctx); err != nil {
		return err
	}
	d.SetCriteria(c)
	view := d.View()
	if *asJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}
	printAppointments(a.out, view)
	return nil
}

func oneArg(args []string, what string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", fmt.Errorf("expected exactly one %s", what)
	}
	return args[0], nil
}

func cmdConfirm(ctx context.Context, a *app, args []string) error {
	id, err := oneArg(args, "appointment id")
	if err != nil {
		return err
	}
	return a.dashboard().Confirm(ctx, appointments.ID(id))
}

func cmdCancel(ctx context.Context, a *app, args []string) error {
	id, err := oneArg(args, "appointment id")
	if err != nil {
		return err
	}
	return a.dashboard().Cancel(ctx, appointments.ID(id))
}

func cmdReschedule(ctx context.Context, a *app, args []string) error {
	if len(args) != 3 {
		return errors.New("expected ID DATE TIME")
	}
	return a.dashboard().Reschedule(ctx, appointments.ID(args[0]), args[1], args[2])
}

func cmdCreate(ctx context.Context, a *app, args []string) error {
	fs := a.flags("create")
	var n bookingapi.NewAppointment
	fs.StringVar(&n.Name, "name", "", "client name")
	fs.StringVar(&n.Email, "email", "", "client email (optional)")
	fs.StringVar(&n.Phone, "phone", "", "client phone")
	fs.StringVar(&n.Date, "date", "", "date YYYY-MM-DD")
	fs.StringVar(&n.Time, "time", "", "time HH:MM")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return a.dashboard().Create(ctx, n)
}

func cmdExport(ctx context.Context, a *app, args []string) error {
	filters, fs := addFilterFlags(a, "export")
	output := fs.String("o", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c, err := filters.criteria(time.Now())
	if err != nil {
		return err
	}

	d := a.dashboard()
	if err := d.Load(ctx); err != nil {
		return err
	}
	d.SetCriteria(c)

	w := a.out
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return d.ExportCSV(w)
}

func cmdProfile(ctx context.Context, a *app, args []string) error {
	fs := a.flags("profile")
	set := fs.String("set", "", "JSON file with the profile to save")
	if err := fs.Parse(args); err != nil {
		return err
	}
	d := a.dashboard()

	if *set != "" {
		data, err := os.ReadFile(*set)
		if err != nil {
			return err
		}
		var p profile.Profile
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("decode %s: %w", *set, err)
		}
		if len(p.BlockedPeriods) == 0 {
			p.AddBlockedPeriod()
		}
		return d.SaveProfile(ctx, &p)
	}

	p, err := d.Profile(ctx)
	if errors.Is(err, bookingapi.ErrProfileNotFound) {
		fmt.Fprintln(a.out, "Nenhum perfil criado ainda. Use: agenda profile -set perfil.json")
		return nil
	}
	if err != nil {
		return err
	}
	printProfile(a.out, p)
	return nil
}

func printProfile(w io.Writer, p *profile.Profile) {
	fmt.Fprintf(w, "%s (%s)\n", p.BusinessName, p.BusinessType.Label())
	days := p.Days()
	for _, day := range schedule.CanonicalOrder {
		if !days.Has(day) {
			continue
		}
		if hours, ok := p.HoursFor(day); ok {
			fmt.Fprintf(w, "  %-8s %s-%s\n", day, hours.Open, hours.Close)
		} else {
			fmt.Fprintf(w, "  %-8s\n", day)
		}
	}
	for _, b := range p.BlockedPeriods {
		when := "todos os dias"
		if b.Kind == profile.BlockSpecificDate {
			when = schedule.FormatDate(b.Date)
		}
		fmt.Fprintf(w, "  bloqueado %s-%s (%s)\n", b.Start, b.End, when)
	}
}

func cmdShareLink(ctx context.Context, a *app, _ []string) error {
	link, err := a.dashboard().ShareLink(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, link.Link)
	if link.QRCodeURL != "" {
		fmt.Fprintf(a.out, "QR code: %s\n", link.QRCodeURL)
	}
	return nil
}

func cmdTrial(ctx context.Context, a *app, _ []string) error {
	badge := a.dashboard().TrialBadge(ctx)
	switch badge.Kind {
	case premium.BadgeUnlimited:
		fmt.Fprintln(a.out, "Plano: ilimitado")
	case premium.BadgeTrial:
		fmt.Fprintf(a.out, "Teste: %d/%d usos hoje (%d restantes, %s)\n", badge.Used, badge.Total, badge.Left, badge.Level)
	default:
		fmt.Fprintln(a.out, "Sem plano ativo")
	}
	return nil
}

func cmdSuggest(ctx context.Context, a *app, _ []string) error {
	text, err := a.dashboard().Suggestions(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, text)
	return nil
}

func cmdStats(ctx context.Context, a *app, _ []string) error {
	st, err := a.dashboard().Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Total: %d\nEste mês: %d\nConfirmados: %d\nComparecimento: %s\n",
		st.Total, st.ThisMonth, st.Confirmed, st.AttendanceRate)
	return nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
