package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/agenda/internal/api/router"
	"github.com/wolfman30/agenda/internal/app/bootstrap"
	"github.com/wolfman30/agenda/internal/appointments"
	"github.com/wolfman30/agenda/internal/chat"
	"github.com/wolfman30/agenda/internal/dashboard"
	"github.com/wolfman30/agenda/internal/publicbooking"
	"github.com/wolfman30/agenda/internal/schedule"
)

func cmdOpenDays(ctx context.Context, a *app, args []string) error {
	fs := a.flags("open-days")
	owner := fs.String("owner", "", "owner user id")
	count := fs.Int("count", a.cfg.OpenDaysCount, "how many days to offer")
	window := fs.Int("window", a.cfg.OpenDaysWindow, "how many days ahead to look")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *owner == "" {
		return errors.New("-owner is required")
	}

	p, err := a.api.PublicProfile(ctx, *owner)
	if err != nil {
		return err
	}
	days := schedule.NextOpenDates(p.Days(), *count, *window, time.Now())
	if len(days) == 0 {
		fmt.Fprintln(a.out, "Nenhum dia de funcionamento nos próximos dias.")
		return nil
	}
	for _, d := range days {
		fmt.Fprintf(a.out, "%s  %-4s %s\n", d.Date, d.Label, d.Short)
	}
	return nil
}

func cmdTimes(ctx context.Context, a *app, args []string) error {
	fs := a.flags("times")
	owner := fs.String("owner", "", "owner user id")
	date := fs.String("date", time.Now().Format(schedule.DateLayout), "date YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *owner == "" {
		return errors.New("-owner is required")
	}

	times, err := a.api.AvailableTimes(ctx, *owner, *date)
	if err != nil {
		return err
	}
	if len(times) == 0 {
		fmt.Fprintf(a.out, "Nenhum horário livre para %s.\n", schedule.FormatDate(*date))
		return nil
	}
	fmt.Fprintln(a.out, strings.Join(times, "  "))
	return nil
}

func formFlags(a *app, name string, form *publicbooking.Form) (*string, func([]string) error) {
	fs := a.flags(name)
	link := fs.String("link", "", "share link received from the business")
	fs.StringVar(&form.Name, "name", "", "your name")
	fs.StringVar(&form.Email, "email", "", "your email (optional)")
	fs.StringVar(&form.Phone, "phone", "", "your phone")
	fs.StringVar(&form.Date, "date", form.Date, "date YYYY-MM-DD")
	fs.StringVar(&form.Time, "time", "", "time HH:MM")
	return link, fs.Parse
}

func (a *app) submit(ctx context.Context, link publicbooking.Link, form publicbooking.Form) error {
	conf, err := publicbooking.Submit(ctx, a.api, link, form)
	if err != nil {
		fmt.Fprintln(a.errOut, publicbooking.FailureMessage(err))
		return err
	}
	fmt.Fprintln(a.out, conf.Message)
	fmt.Fprintf(a.out, "%s, %s às %s\n", conf.Form.Name, schedule.FormatDate(conf.Form.Date), schedule.TrimClock(conf.Form.Time))
	return nil
}

func cmdBook(ctx context.Context, a *app, args []string) error {
	form := publicbooking.NewForm(time.Now())
	rawLink, parse := formFlags(a, "book", &form)
	if err := parse(args); err != nil {
		return err
	}
	link, err := publicbooking.ParseShareLink(*rawLink)
	if err != nil {
		fmt.Fprintln(a.errOut, publicbooking.FailureMessage(err))
		return err
	}
	return a.submit(ctx, link, form)
}

func (a *app) choose(prompt string, n int) (int, error) {
	for {
		fmt.Fprint(a.out, prompt)
		line, err := readLine(a.in)
		if err != nil {
			return 0, err
		}
		i, err := strconv.Atoi(line)
		if err == nil && i >= 1 && i <= n {
			return i - 1, nil
		}
		fmt.Fprintf(a.out, "Escolha um número de 1 a %d.\n", n)
	}
}

func (a *app) ask(prompt string) (string, error) {
	fmt.Fprint(a.out, prompt)
	return readLine(a.in)
}

func cmdChat(ctx context.Context, a *app, args []string) error {
	fs := a.flags("chat")
	rawLink := fs.String("link", "", "share link received from the business")
	if err := fs.Parse(args); err != nil {
		return err
	}
	link, err := publicbooking.ParseShareLink(*rawLink)
	if err != nil {
		fmt.Fprintln(a.errOut, publicbooking.FailureMessage(err))
		return err
	}

	form := publicbooking.NewForm(time.Now())
	printed := 0
	assistant := chat.New(a.api, link.OwnerID, a.logger,
		chat.WithOpenDays(a.cfg.OpenDaysCount, a.cfg.OpenDaysWindow),
		chat.OnTimeSelect(form.SetSlot),
	)
	flush := func() {
		tr := assistant.Transcript()
		for _, m := range tr[printed:] {
			switch m.Kind {
			case chat.KindBot:
				fmt.Fprintf(a.out, "🤖 %s\n", m.Text)
			case chat.KindUser:
				fmt.Fprintf(a.out, "🙂 %s\n", m.Text)
			case chat.KindComponent:
				for i, d := range m.Days {
					fmt.Fprintf(a.out, "  %d) %s %s\n", i+1, d.Label, d.Short)
				}
				for i, t := range m.Times {
					fmt.Fprintf(a.out, "  %d) %s\n", i+1, t)
				}
			}
		}
		printed = len(tr)
	}

	flush()
	days := assistant.LoadTimes(ctx)
	flush()
	if len(days) == 0 {
		return nil
	}

	var times []string
	var date string
	for len(times) == 0 {
		i, err := a.choose("Dia: ", len(days))
		if err != nil {
			return err
		}
		date = days[i].Date
		times = assistant.SelectDate(ctx, date)
		flush()
	}
	i, err := a.choose("Horário: ", len(times))
	if err != nil {
		return err
	}
	assistant.SelectTime(date, times[i])
	flush()

	if form.Name, err = a.ask("Nome: "); err != nil {
		return err
	}
	if form.Phone, err = a.ask("Telefone: "); err != nil {
		return err
	}
	if form.Email, err = a.ask("Email (opcional): "); err != nil {
		return err
	}
	return a.submit(ctx, link, form)
}

func cmdWatch(ctx context.Context, a *app, args []string) error {
	fs := a.flags("watch")
	addr := fs.String("metrics", a.cfg.MetricsAddr, "address for /metrics and /healthz (empty disables)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sub, err := bootstrap.BuildSubscriber(a.cfg, a.sessions.TokenSource(ctx), a.redis, a.logger)
	if err != nil {
		return err
	}

	var count atomic.Int64
	d := a.dashboard(dashboard.WithOnChange(func(view []appointments.Appointment) {
		count.Store(int64(len(view)))
		fmt.Fprintf(a.out, "\n%s\n", time.Now().Format("15:04:05"))
		printAppointments(a.out, view)
	}))
	if err := d.Load(ctx); err != nil {
		return err
	}

	if *addr != "" {
		srv := &http.Server{
			Addr: *addr,
			Handler: router.New(&router.Config{
				Logger:         a.logger,
				MetricsHandler: promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}),
				Health: func() (map[string]any, error) {
					return map[string]any{"appointments": count.Load()}, nil
				},
			}),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			a.logger.Info("metrics server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				a.logger.Error("metrics server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	err = d.Watch(ctx, sub, a.cfg.RealtimeTable)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err == nil {
		return errors.New("change feed closed")
	}
	return err
}
